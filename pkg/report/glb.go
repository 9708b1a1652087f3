package report

import (
	"maps"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// GLBPath is the GLB file exported next to a scene file.
func GLBPath(sceneFile string) string {
	return strings.TrimSuffix(sceneFile, filepath.Ext(sceneFile)) + ".glb"
}

// glbPreset is the exporter option set the add-on forwards to the host
// glTF exporter unchanged.
var glbPreset = map[string]any{
	"export_import_convert_lighting_mode": "SPEC",
	"gltf_export_id":                      "",
	"export_use_gltfpack":                 false,
	"export_gltfpack_tc":                  true,
	"export_gltfpack_tq":                  8,
	"export_gltfpack_si":                  1.0,
	"export_gltfpack_sa":                  false,
	"export_gltfpack_slb":                 false,
	"export_gltfpack_vp":                  14,
	"export_gltfpack_vt":                  12,
	"export_gltfpack_vn":                  8,
	"export_gltfpack_vc":                  8,
	"export_gltfpack_vpi":                 "Integer",
	"export_gltfpack_noq":                 true,
	"export_gltfpack_kn":                  false,
	"export_format":                       "GLB",
	"ui_tab":                              "GENERAL",
	"export_copyright":                    "",
	"export_image_format":                 "AUTO",
	"export_image_add_webp":               false,
	"export_image_webp_fallback":          false,
	"export_texture_dir":                  "",
	"export_jpeg_quality":                 75,
	"export_image_quality":                75,
	"export_keep_originals":               false,
	"export_texcoords":                    true,
	"export_normals":                      true,
	"export_gn_mesh":                      false,

	"export_draco_mesh_compression_enable": false,
	"export_draco_mesh_compression_level":  6,
	"export_draco_position_quantization":   14,
	"export_draco_normal_quantization":     10,
	"export_draco_texcoord_quantization":   12,
	"export_draco_color_quantization":      10,
	"export_draco_generic_quantization":    12,

	"export_tangents":                             false,
	"export_materials":                            "EXPORT",
	"export_unused_images":                        false,
	"export_unused_textures":                      false,
	"export_vertex_color":                         "MATERIAL",
	"export_all_vertex_colors":                    true,
	"export_active_vertex_color_when_no_material": true,
	"export_attributes":                           false,
	"use_mesh_edges":                              false,
	"use_mesh_vertices":                           false,
	"export_cameras":                              false,
	"use_selection":                               false,
	"use_visible":                                 false,
	"use_renderable":                              false,
	"use_active_collection_with_nested":           true,
	"use_active_collection":                       false,
	"use_active_scene":                            false,
	"collection":                                  "",
	"at_collection_center":                        false,
	"export_extras":                               true,
	"export_yup":                                  true,
	"export_apply":                                false,
	"export_shared_accessors":                     false,

	"export_animations":                            true,
	"export_frame_range":                           false,
	"export_frame_step":                            1,
	"export_force_sampling":                        true,
	"export_sampling_interpolation_fallback":       "LINEAR",
	"export_pointer_animation":                     false,
	"export_animation_mode":                        "ACTIVE_ACTIONS",
	"export_nla_strips_merged_animation_name":      "Animation",
	"export_def_bones":                             false,
	"export_hierarchy_flatten_bones":               false,
	"export_hierarchy_flatten_objs":                false,
	"export_armature_object_remove":                false,
	"export_leaf_bone":                             false,
	"export_optimize_animation_size":               true,
	"export_optimize_animation_keep_anim_armature": true,
	"export_optimize_animation_keep_anim_object":   false,
	"export_optimize_disable_viewport":             false,
	"export_negative_frame":                        "SLIDE",
	"export_anim_slide_to_zero":                    false,
	"export_bake_animation":                        false,
	"export_merge_animation":                       "ACTION",
	"export_anim_single_armature":                  true,
	"export_reset_pose_bones":                      true,
	"export_current_frame":                         false,
	"export_rest_position_armature":                true,
	"export_anim_scene_split_object":               true,

	"export_skins":                      true,
	"export_influence_nb":               4,
	"export_all_influences":             false,
	"export_morph":                      true,
	"export_morph_normal":               true,
	"export_morph_tangent":              false,
	"export_morph_animation":            true,
	"export_morph_reset_sk_data":        true,
	"export_lights":                     false,
	"export_try_sparse_sk":              true,
	"export_try_omit_sparse_sk":         false,
	"export_gpu_instances":              false,
	"export_action_filter":              false,
	"export_convert_animation_pointer":  false,
	"export_nla_strips":                 true,
	"export_original_specular":          false,
	"will_save_settings":                false,
	"export_hierarchy_full_collections": false,
	"export_extra_animations":           false,
	"export_loglevel":                   -1,
}

// GLBPreset returns a fresh copy of the exporter options with filepath set
// to the GLB next to sceneFile.
func GLBPreset(sceneFile string) map[string]any {
	opts := maps.Clone(glbPreset)
	opts["filepath"] = GLBPath(sceneFile)
	return opts
}

// LoadGLBOverrides reads exporter options from the [glb] table of a TOML
// file. A missing table yields an empty map.
func LoadGLBOverrides(path string) (map[string]any, error) {
	var doc struct {
		GLB map[string]any `toml:"glb"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, err
	}
	if doc.GLB == nil {
		return map[string]any{}, nil
	}
	return doc.GLB, nil
}

// GLBPresetWith applies overrides on top of GLBPreset. filepath cannot be
// overridden.
func GLBPresetWith(sceneFile string, overrides map[string]any) map[string]any {
	opts := GLBPreset(sceneFile)
	for k, v := range overrides {
		if k == "filepath" {
			continue
		}
		opts[k] = v
	}
	return opts
}
