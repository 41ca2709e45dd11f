package journey

// Repository 旅程规格仓储接口
type Repository interface {
	// Save 保存旅程规格
	Save(spec *Specification) error

	// FindByID 根据ID查找旅程规格
	FindByID(id string) (*Specification, error)

	// FindAll 查找所有旅程规格
	FindAll() ([]*Specification, error)

	// Delete 删除旅程规格
	Delete(id string) error

	// Exists 检查旅程规格是否存在
	Exists(id string) bool
}
