package application

import (
	"fmt"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
	"github.com/mark64oswald/healthsim-skills-sub002/engine"
)

// JourneyService 旅程规格应用服务
type JourneyService struct {
	journeyRepo journey.Repository
	engine      engine.Engine
}

// NewJourneyService 创建旅程服务
func NewJourneyService(journeyRepo journey.Repository, eng engine.Engine) *JourneyService {
	return &JourneyService{
		journeyRepo: journeyRepo,
		engine:      eng,
	}
}

// Register 注册旅程规格：校验并写入引擎与仓储
func (s *JourneyService) Register(spec *journey.Specification) error {
	if spec == nil {
		return NewApplicationError("journey specification cannot be nil")
	}

	if err := s.engine.RegisterJourney(spec); err != nil {
		return fmt.Errorf("failed to register journey: %w", err)
	}

	if err := s.journeyRepo.Save(spec); err != nil {
		return fmt.Errorf("failed to save journey: %w", err)
	}

	return nil
}

// FindByID 根据ID查找旅程规格
func (s *JourneyService) FindByID(id string) (*journey.Specification, error) {
	spec, err := s.journeyRepo.FindByID(id)
	if err != nil {
		return nil, NewApplicationErrorf("journey not found: %s", id)
	}
	return spec, nil
}

// FindAll 查找所有旅程规格
func (s *JourneyService) FindAll() ([]*journey.Specification, error) {
	return s.journeyRepo.FindAll()
}

// Delete 删除旅程规格
func (s *JourneyService) Delete(id string) error {
	if err := s.engine.DeleteJourney(id); err != nil {
		return err
	}
	return s.journeyRepo.Delete(id)
}

// Exists 检查旅程规格是否存在
func (s *JourneyService) Exists(id string) bool {
	return s.journeyRepo.Exists(id)
}
