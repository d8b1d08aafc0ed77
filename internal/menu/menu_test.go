package menu

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/matheus3301/mesa/internal/docstore/memory"
)

func testService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, zap.NewNop()), store
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, Product{Name: "Feijoada", Price: 22, Category: "main-course", IsAvailable: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p == nil || p.Name != "Feijoada" || p.Price != 22 {
		t.Errorf("product = %+v", p)
	}

	missing, err := svc.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("missing product: %+v, %v", missing, err)
	}
}

func TestListGroupsAndSortsByPopularity(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	for _, p := range []Product{
		{Name: "Caipirinha", Category: "drinks", OrderCount: 5, IsAvailable: true},
		{Name: "Feijoada", Category: "main-course", OrderCount: 9, IsAvailable: true},
		{Name: "Moqueca", Category: "main-course", OrderCount: 20, IsAvailable: true},
		{Name: "Uncategorized", OrderCount: 1, IsAvailable: true},
	} {
		if _, err := svc.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	grouped, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	mains := grouped["main-course"]
	if len(mains) != 3 {
		t.Fatalf("main-course = %d items (uncategorized should default here), want 3", len(mains))
	}
	if mains[0].Name != "Moqueca" {
		t.Errorf("most ordered first violated: %+v", mains[0])
	}
	if len(grouped["drinks"]) != 1 {
		t.Errorf("drinks = %+v", grouped["drinks"])
	}
}

func TestListCachedUntilWrite(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, Product{Name: "Feijoada", Category: "main-course"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}

	// A write that bypasses the service is invisible until invalidation.
	if _, err := store.CreateOne(ctx, "products", map[string]any{"name": "Smuggled", "category": "drinks"}); err != nil {
		t.Fatal(err)
	}
	grouped, _ := svc.List(ctx)
	if len(grouped["drinks"]) != 0 {
		t.Error("cache should have hidden the direct write")
	}

	// A service write invalidates and the next list sees everything.
	if _, err := svc.Create(ctx, Product{Name: "Pudim", Category: "desserts"}); err != nil {
		t.Fatal(err)
	}
	grouped, _ = svc.List(ctx)
	if len(grouped["drinks"]) != 1 || len(grouped["desserts"]) != 1 {
		t.Errorf("post-invalidate listing: %+v", grouped)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	svc, _ := testService(t)
	if err := svc.Update(context.Background(), Product{Name: "x"}); !errors.Is(err, ErrMissingID) {
		t.Errorf("err = %v, want ErrMissingID", err)
	}
	if err := svc.Delete(context.Background(), ""); !errors.Is(err, ErrMissingID) {
		t.Errorf("err = %v, want ErrMissingID", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, Product{Name: "Feijoada", Price: 22, Category: "main-course"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Update(ctx, Product{ID: id, Name: "Feijoada Completa", Price: 25, Category: "main-course"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p, _ := svc.Get(ctx, id)
	if p.Name != "Feijoada Completa" || p.Price != 25 {
		t.Errorf("after update: %+v", p)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	p, _ = svc.Get(ctx, id)
	if p != nil {
		t.Error("product survived delete")
	}
}
