// Package importer creates category trees described in YAML files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/commerce-admin/internal/api"
	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/service"
	"github.com/Veraticus/commerce-admin/internal/tree"
	"github.com/Veraticus/commerce-admin/internal/validation"
	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"
)

// Node is one category of an import file.
type Node struct {
	Active      *bool  `yaml:"active,omitempty"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Children    []Node `yaml:"children,omitempty"`
}

// Document is the top level of an import file. Parent attaches every root
// below an existing category.
type Document struct {
	Parent     *int   `yaml:"parent,omitempty"`
	Categories []Node `yaml:"categories"`
}

// Parse decodes an import document. Unknown keys are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("import file is empty")
		}
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("import file lists no categories")
	}
	return &doc, nil
}

// Count returns the number of categories in the document.
func (d *Document) Count() int {
	var count func(nodes []Node) int
	count = func(nodes []Node) int {
		n := len(nodes)
		for _, c := range nodes {
			n += count(c.Children)
		}
		return n
	}
	return count(d.Categories)
}

// Failure records a category that could not be created. Its subtree is
// skipped.
type Failure struct {
	Err     error
	Path    string
	Skipped int
}

// Result summarises an import.
type Result struct {
	Created  []*model.Category
	Failures []Failure
	Skipped  int
}

// Options configure an import.
type Options struct {
	// Progress receives a progress bar when set.
	Progress io.Writer
	// DryRun validates the document without calling the backend.
	DryRun bool
}

// Importer creates categories parents first.
type Importer struct {
	svc       service.CategoryService
	validator *validation.Validator
}

// New creates an importer.
func New(svc service.CategoryService, v *validation.Validator) *Importer {
	return &Importer{svc: svc, validator: v}
}

// Import creates every category in doc. A category that fails validation or
// creation is recorded and its children are skipped; siblings continue.
func (im *Importer) Import(ctx context.Context, doc *Document, opts Options) (*Result, error) {
	if doc.Parent != nil && !opts.DryRun {
		if _, err := im.svc.GetCategory(ctx, *doc.Parent); err != nil {
			return nil, fmt.Errorf("parent category %d: %w", *doc.Parent, err)
		}
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = newBar(opts.Progress, doc.Count())
	}

	res := &Result{}
	next := 1
	err := im.create(ctx, doc.Categories, doc.Parent, "", bar, res, opts.DryRun, &next)
	if bar != nil {
		_ = bar.Finish()
	}
	common.LogInfo("category import finished", common.Fields{
		"created":  len(res.Created),
		"failures": len(res.Failures),
		"dry_run":  opts.DryRun,
	})
	return res, err
}

func (im *Importer) create(ctx context.Context, nodes []Node, parent *int, prefix string,
	bar *progressbar.ProgressBar, res *Result, dryRun bool, next *int,
) error {
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := n.Name
		if prefix != "" {
			path = prefix + " > " + n.Name
		}

		form := validation.CategoryForm{
			ParentID:    parent,
			Name:        n.Name,
			Description: n.Description,
			IsActive:    n.Active == nil || *n.Active,
		}

		created, err := im.createOne(ctx, &form, dryRun, next)
		advance(bar)
		if err != nil {
			skipped := countNodes(n.Children)
			res.Failures = append(res.Failures, Failure{Path: path, Err: err, Skipped: skipped})
			res.Skipped += skipped
			addBar(bar, skipped)
			slog.Warn("category import failed", "path", path, "error", err, "skipped", skipped)
			if isFatal(err) {
				return err
			}
			continue
		}
		res.Created = append(res.Created, created)

		if err := im.create(ctx, n.Children, model.IntPtr(created.ID), path, bar, res, dryRun, next); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) createOne(ctx context.Context, form *validation.CategoryForm, dryRun bool, next *int) (*model.Category, error) {
	if err := im.validator.Category(form); err != nil {
		return nil, err
	}

	if dryRun {
		c := &model.Category{
			ID:          -*next,
			Name:        form.Name,
			Description: form.Description,
			ParentID:    form.ParentID,
			IsActive:    form.IsActive,
		}
		*next++
		return c, nil
	}

	return im.svc.CreateCategory(ctx, model.CreateCategoryRequest{
		ParentID:    form.ParentID,
		Name:        form.Name,
		Description: form.Description,
		IsActive:    model.BoolPtr(form.IsActive),
	})
}

// isFatal reports errors that would fail every remaining request too.
func isFatal(err error) bool {
	switch api.KindOf(err) {
	case api.KindNetwork, api.KindTimeout, api.KindUnauthorized, api.KindForbidden:
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func countNodes(nodes []Node) int {
	n := len(nodes)
	for _, c := range nodes {
		n += countNodes(c.Children)
	}
	return n
}

// Forest returns the created categories as a forest rooted at the import's
// top-level nodes.
func (r *Result) Forest() []*model.Category {
	byID := make(map[int]*model.Category, len(r.Created))
	var roots []*model.Category
	for _, c := range r.Created {
		copied := *c
		copied.Children = nil
		byID[c.ID] = &copied
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Children = append(parent.Children, &copied)
				continue
			}
		}
		roots = append(roots, &copied)
	}
	tree.Normalize(roots)
	return roots
}

func newBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing categories...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func advance(bar *progressbar.ProgressBar) {
	addBar(bar, 1)
}

func addBar(bar *progressbar.ProgressBar, n int) {
	if bar == nil || n == 0 {
		return
	}
	if err := bar.Add(n); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}
