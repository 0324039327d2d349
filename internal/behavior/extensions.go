package behavior

import (
	"fmt"
	"sync"

	"github.com/curator-cms/curator/internal/domain"
	"github.com/curator-cms/curator/internal/relation"
)

// Point is a fixed lifecycle moment the behavior dispatches handlers at.
type Point string

const (
	PointConfig         Point = "config"          // before plan construction, config is mutable
	PointViewWidget     Point = "view-widget"     // after the view-mode widget spec is built
	PointManageWidget   Point = "manage-widget"   // after each manage-mode widget spec is built
	PointPivotWidget    Point = "pivot-widget"    // after the pivot form spec is built
	PointViewFilter     Point = "view-filter"     // scope/filter of the view list
	PointManageFilter   Point = "manage-filter"   // scope/filter of the selection list
	PointRefreshResults Point = "refresh-results" // after a manage-mode mutation
)

// Context is handed to every handler. Handlers must not assume the plan is
// fully initialized: at PointConfig the plan is nil, at widget points only
// the widget under construction is final.
type Context struct {
	Owner    domain.OwnerRef
	Relation domain.Relation
	Config   *relation.Config
	Plan     *RenderPlan
	Widget   *WidgetSpec
	Refresh  map[string]string
}

// Handler extends the behavior at one lifecycle point. A returned error is
// surfaced to the caller, never swallowed.
type Handler func(*Context) error

// Extensions holds ordered handler lists per extension point.
type Extensions struct {
	mu       sync.RWMutex
	handlers map[Point][]Handler
}

func NewExtensions() *Extensions {
	return &Extensions{handlers: make(map[Point][]Handler)}
}

// Register appends a handler to a point. Handlers run in registration order.
func (e *Extensions) Register(p Point, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[p] = append(e.handlers[p], h)
}

func (e *Extensions) dispatch(p Point, ctx *Context) error {
	e.mu.RLock()
	handlers := e.handlers[p]
	e.mu.RUnlock()

	for i, h := range handlers {
		if err := h(ctx); err != nil {
			return fmt.Errorf("extension %s[%d]: %w", p, i, err)
		}
	}
	return nil
}
