// Package shoprec 是电商混合推荐系统：离线批处理预计算，在线只读缓存。
//
// 设计要点：
// - 批处理：加载数据 → 训练一次隐因子模型（SVD）→ 每个用户跑 Pipeline → 覆盖写入缓存
// - Pipeline：Fanout[内容兜底, 隐因子模型]（兜底优先）→ Filter[目录, 已购, 资格表达式] → TopN
// - Labels-first：recall_source / fallback_reason 等 label 全链路透传，便于解释与观测
// - 在线：缓存缺失即空列表；未知用户与缓存不可达分别返回 404 / 503
package shoprec

import "github.com/rushteam/shoprec/pipeline"

// 轻量 facade：便于直接 import "shoprec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
