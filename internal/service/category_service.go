package service

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

type CategoryService struct {
	repo repository.Collection[domain.Category]
	tx   repository.TxManager
	log  logrus.FieldLogger
}

func NewCategoryService(repo repository.Collection[domain.Category], tx repository.TxManager, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{repo: repo, tx: tx, log: log.WithField("module", "categories")}
}

// CategoryNode is a category with its sub-categories.
type CategoryNode struct {
	domain.Category
	Children []*CategoryNode `json:"children"`
}

// BuildTree links categories through ParentID. A category whose parent is
// missing becomes a root, and so does the node at which a parent cycle closes.
// Siblings are sorted by name.
func BuildTree(categories []domain.Category) []*CategoryNode {
	nodes := make(map[string]*CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}
	parentOf := func(id string) string {
		n, ok := nodes[id]
		if !ok {
			return ""
		}
		if _, ok := nodes[n.ParentID]; !ok {
			return ""
		}
		return n.ParentID
	}

	roots := make([]*CategoryNode, 0)
	for _, c := range categories {
		n := nodes[c.ID]
		parent := parentOf(c.ID)
		if parent == "" || inCycle(c.ID, parentOf, len(nodes)) {
			roots = append(roots, n)
			continue
		}
		nodes[parent].Children = append(nodes[parent].Children, n)
	}

	var sortNodes func([]*CategoryNode)
	sortNodes = func(list []*CategoryNode) {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		for _, n := range list {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)
	return roots
}

// inCycle reports whether walking up from id comes back to id. The smallest id
// of a cycle is attached as a root, the others keep their parent.
func inCycle(id string, parentOf func(string) string, limit int) bool {
	smallest := id
	cur := parentOf(id)
	for i := 0; cur != "" && i <= limit; i++ {
		if cur == id {
			return id == smallest
		}
		if cur < smallest {
			smallest = cur
		}
		cur = parentOf(cur)
	}
	return false
}

// VisibleTree drops hidden categories together with their descendants.
func VisibleTree(roots []*CategoryNode) []*CategoryNode {
	out := make([]*CategoryNode, 0, len(roots))
	for _, n := range roots {
		if !n.IsVisible {
			continue
		}
		cp := *n
		cp.Children = VisibleTree(n.Children)
		out = append(out, &cp)
	}
	return out
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

// Tree builds the category tree; public callers only see visible branches.
func (s *CategoryService) Tree(ctx context.Context, onlyVisible bool) ([]*CategoryNode, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	tree := BuildTree(all)
	if onlyVisible {
		tree = VisibleTree(tree)
	}
	return tree, nil
}

// checkParent rejects unknown parents and parents that would close a cycle.
func (s *CategoryService) checkParent(ctx context.Context, c *domain.Category) error {
	if c.ParentID == "" {
		return nil
	}
	if c.ParentID == c.ID {
		return invalid("a category cannot be its own parent")
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	parents := make(map[string]string, len(all))
	for _, x := range all {
		parents[x.ID] = x.ParentID
	}
	if _, ok := parents[c.ParentID]; !ok {
		return invalid("unknown parent category %q", c.ParentID)
	}
	if c.ID == "" {
		return nil
	}
	for cur, i := c.ParentID, 0; cur != "" && i <= len(all); cur, i = parents[cur], i+1 {
		if cur == c.ID {
			return invalid("parent %q would create a cycle", c.ParentID)
		}
	}
	return nil
}

func (s *CategoryService) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.ID = ""
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, &c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryService) Update(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if c.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, &c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete leaves children in place; they show up as roots until re-parented.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// SetVisibility toggles several categories atomically.
func (s *CategoryService) SetVisibility(ctx context.Context, ids []string, visible bool) error {
	if len(ids) == 0 {
		return invalid("no category id")
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cats := make([]*domain.Category, 0, len(ids))
		for _, id := range ids {
			c, err := s.repo.Get(ctx, id)
			if err != nil {
				return err
			}
			cats = append(cats, c)
		}
		for _, c := range cats {
			c.IsVisible = visible
			if err := s.repo.Update(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"count": len(ids), "visible": visible}).Info("Category visibility changed")
	return nil
}
