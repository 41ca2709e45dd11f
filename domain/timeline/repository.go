package timeline

// Repository 时间线仓储接口
type Repository interface {
	// SaveTimeline 保存时间线（含全部事件）
	SaveTimeline(t *Timeline) error

	// FindTimelineByID 根据ID查找时间线
	FindTimelineByID(id string) (*Timeline, error)

	// ListTimelines 按实体列出时间线，entityID为空时列出全部
	ListTimelines(entityID string, limit, offset int) ([]*Timeline, error)

	// UpdateTimeline 更新时间线
	UpdateTimeline(t *Timeline) error

	// DeleteTimeline 删除时间线
	DeleteTimeline(id string) error
}
