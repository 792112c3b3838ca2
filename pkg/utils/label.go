package utils

// Label 是挂在候选商品或用户上下文上的标注。
//
// 商品级：recall_source / recall_priority / fallback_reason / fallback_category / rank_position
// 用户级：cold_start / fallback_reason，可在资格表达式中以 user_label.<key> 读取
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rerank
}

// MergeLabel 合并同名 Label：不同的 Value 以 '|' 累积，相同的 Value 只保留一次；
// Source 以 ',' 累积并去重。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	if incoming.Value != existing.Value {
		merged.Value = existing.Value + "|" + incoming.Value
	}
	switch {
	case existing.Source == "" || existing.Source == incoming.Source:
		merged.Source = incoming.Source
	case incoming.Source == "":
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
