package memory

import (
	"testing"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
)

func testSpec(t *testing.T, id string) *journey.Specification {
	t.Helper()
	spec, err := journey.NewBuilder("测试旅程").
		SetJourneyID(id).
		AddEvent("ev", "事件", "encounter").
		Build()
	if err != nil {
		t.Fatalf("构建旅程失败: %v", err)
	}
	return spec
}

func TestJourneyRepositoryCRUD(t *testing.T) {
	repo := NewJourneyRepository()
	spec := testSpec(t, "j1")

	if err := repo.Save(spec); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	found, err := repo.FindByID("j1")
	if err != nil {
		t.Fatalf("查找失败: %v", err)
	}
	if found.JourneyID != "j1" {
		t.Errorf("期望j1，实际为: %s", found.JourneyID)
	}

	if !repo.Exists("j1") {
		t.Error("期望j1存在")
	}

	repo.Save(testSpec(t, "j2"))
	all, err := repo.FindAll()
	if err != nil {
		t.Fatalf("列出失败: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("期望2个旅程，实际为: %d", len(all))
	}

	if err := repo.Delete("j1"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if repo.Exists("j1") {
		t.Error("删除后不应存在")
	}
}

func TestJourneyRepositoryNotFound(t *testing.T) {
	repo := NewJourneyRepository()

	if _, err := repo.FindByID("missing"); err == nil {
		t.Error("期望查找不存在的旅程返回错误")
	}
	if err := repo.Delete("missing"); err == nil {
		t.Error("期望删除不存在的旅程返回错误")
	}
}
