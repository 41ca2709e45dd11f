package memory

import (
	"sync"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
)

// journeyRepository 内存旅程仓储实现
type journeyRepository struct {
	journeys map[string]*journey.Specification
	mutex    sync.RWMutex
}

// NewJourneyRepository 创建内存旅程仓储
func NewJourneyRepository() journey.Repository {
	return &journeyRepository{
		journeys: make(map[string]*journey.Specification),
	}
}

// Save 保存旅程规格
func (r *journeyRepository) Save(spec *journey.Specification) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.journeys[spec.JourneyID] = spec
	return nil
}

// FindByID 根据ID查找旅程规格
func (r *journeyRepository) FindByID(id string) (*journey.Specification, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	spec, exists := r.journeys[id]
	if !exists {
		return nil, NewRepositoryError("journey not found: " + id)
	}

	return spec, nil
}

// FindAll 查找所有旅程规格
func (r *journeyRepository) FindAll() ([]*journey.Specification, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	specs := make([]*journey.Specification, 0, len(r.journeys))
	for _, spec := range r.journeys {
		specs = append(specs, spec)
	}

	return specs, nil
}

// Delete 删除旅程规格
func (r *journeyRepository) Delete(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.journeys[id]; !exists {
		return NewRepositoryError("journey not found: " + id)
	}

	delete(r.journeys, id)
	return nil
}

// Exists 检查旅程规格是否存在
func (r *journeyRepository) Exists(id string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.journeys[id]
	return exists
}
