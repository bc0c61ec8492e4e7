package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/commerce-admin/internal/admin"
	"github.com/Veraticus/commerce-admin/internal/cli"
	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/tree"
	"github.com/Veraticus/commerce-admin/internal/tui"
	"github.com/Veraticus/commerce-admin/internal/tui/themes"
	"github.com/Veraticus/commerce-admin/internal/validation"
	"github.com/charmbracelet/lipgloss"
	ltree "github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Manage product categories",
		Long:    `List, browse, create, move, activate, deactivate and delete product categories.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(treeCategoriesCmd())
	cmd.AddCommand(showCategoryCmd())
	cmd.AddCommand(categoryProductsCmd())
	cmd.AddCommand(parentsCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(statusCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(browseCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())

	return cmd
}

// loadView fetches the forest with the given filter, or the configured
// default when status is empty.
func loadView(cmd *cobra.Command, a *app, status string, force bool) (*admin.CategoryView, error) {
	filter := a.cfg.UI.Filter
	if status != "" {
		f, err := model.ParseStatusFilter(status)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	view := admin.NewCategoryView(a.client, a.notify, confirmer(cmd, force))
	if err := view.SetFilter(commandContext(cmd), filter); err != nil {
		return nil, reported(err)
	}
	return view, nil
}

func listCategoriesCmd() *cobra.Command {
	var status, output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories in tree order",
		Long:  `Display categories depth-first with their level, status and parent.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			view, err := loadView(cmd, a, status, false)
			if err != nil {
				return err
			}

			if output != outputTable {
				return writeStructured(a.out, output, view.Forest())
			}

			entries := view.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(a.out, cli.InfoStyle.Render("No categories found. Use 'cadmin categories add' to create one."))
				return nil
			}
			return writeCategoryTable(a.out, entries)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "status filter (active, inactive, all)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table, yaml, json)")

	return cmd
}

func writeCategoryTable(out io.Writer, entries []tree.Entry) error {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	return writeTable(out, entries, headerStyle.Render)
}

// writeTable aligns the columns first and styles the header line afterwards,
// since tabwriter counts escape sequences as cell width.
func writeTable(out io.Writer, entries []tree.Entry, header func(...string) string) error {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", "ID", "Name", "Level", "Status", "Products", "Parent")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 4),
		strings.Repeat("-", 30),
		strings.Repeat("-", 5),
		strings.Repeat("-", 10),
		strings.Repeat("-", 8),
		strings.Repeat("-", 6))

	for _, e := range entries {
		c := e.Category
		products := "-"
		if c.ProductCount != nil {
			products = fmt.Sprintf("%d", *c.ProductCount)
		}
		parent := "-"
		if c.ParentID != nil {
			parent = fmt.Sprintf("%d", *c.ParentID)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n",
			c.ID, tree.Indent(e.Level)+c.Name, e.Level, c.StatusLabel(), products, parent)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	first, rest, _ := strings.Cut(buf.String(), "\n")
	_, err := fmt.Fprintf(out, "%s\n%s", header(strings.TrimRight(first, " ")), rest)
	return err
}

func treeCategoriesCmd() *cobra.Command {
	var (
		status string
		depth  int
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Draw the category tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			view, err := loadView(cmd, a, status, false)
			if err != nil {
				return err
			}

			forest := view.Forest()
			if len(forest) == 0 {
				fmt.Fprintln(a.out, cli.InfoStyle.Render("No categories found."))
				return nil
			}
			fmt.Fprintln(a.out, renderTree(forest, depth))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "status filter (active, inactive, all)")
	cmd.Flags().IntVar(&depth, "depth", 0, "levels to draw below the roots (0 for all)")

	return cmd
}

// renderTree draws the forest under a store root. Subtrees deeper than depth
// collapse into a child count.
func renderTree(forest []*model.Category, depth int) string {
	root := ltree.Root(cli.StoreIcon + " Categories").
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(cli.SubtleStyle)

	var build func(c *model.Category, level int) any
	build = func(c *model.Category, level int) any {
		label := treeLabel(c)
		if !c.HasChildren() {
			return label
		}
		if depth > 0 && level >= depth {
			return label + cli.SubtleStyle.Render(fmt.Sprintf(" (+%d)", tree.Count(c.Children)))
		}
		node := ltree.Root(label)
		for _, child := range c.Children {
			if child == nil {
				continue
			}
			node.Child(build(child, level+1))
		}
		return node
	}

	for _, c := range forest {
		if c == nil {
			continue
		}
		root.Child(build(c, 0))
	}
	return root.String()
}

func treeLabel(c *model.Category) string {
	label := fmt.Sprintf("%s [%d]", c.Name, c.ID)
	if !c.IsActive {
		return cli.SubtleStyle.Render(cli.InactiveIcon + " " + label)
	}
	return label
}

func showCategoryCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			c, err := a.client.GetCategory(commandContext(cmd), id)
			if err != nil {
				return fmt.Errorf("failed to get category %d: %w", id, err)
			}

			if output != outputTable {
				return writeStructured(a.out, output, c)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "ID:          %d\n", c.ID)
			fmt.Fprintf(&b, "Status:      %s\n", cli.FormatStatus(c.IsActive))
			fmt.Fprintf(&b, "Level:       %d\n", c.Level)
			if c.Parent != nil {
				fmt.Fprintf(&b, "Parent:      %s [%d]\n", c.Parent.Name, c.Parent.ID)
			}
			if len(c.Path) > 0 {
				fmt.Fprintf(&b, "Path:        %s\n", joinRefs(c.Path))
			}
			if c.Description != "" {
				fmt.Fprintf(&b, "Description: %s\n", c.Description)
			}
			if c.ProductCount != nil {
				fmt.Fprintf(&b, "Products:    %d\n", *c.ProductCount)
			}
			fmt.Fprintf(&b, "Subcategories: %d", len(c.Children))

			fmt.Fprintln(a.out, cli.RenderBox(cli.FolderIcon+" "+c.Name, b.String()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (table, yaml, json)")

	return cmd
}

func joinRefs(refs []model.CategoryRef) string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return strings.Join(names, " / ")
}

func categoryProductsCmd() *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "products <id>",
		Short: "List the products of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if currency == "" {
				currency = a.cfg.UI.Currency
			}

			view := admin.NewCategoryView(a.client, a.notify, cli.AssumeYes())
			res, err := view.Products(commandContext(cmd), id)
			if err != nil {
				return reported(err)
			}

			fmt.Fprintln(a.out, cli.FormatTitle(joinRefs(res.Breadcrumb)))
			if len(res.Products) == 0 {
				fmt.Fprintln(a.out, cli.InfoStyle.Render("No products in this category."))
				return nil
			}

			prices := admin.NewPriceFormatter(strings.ToUpper(currency), a.cfg.UI.Locale)
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "Code\tName\tPrice\tStock\t")
			for _, p := range res.Products {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t\n", p.Code, p.Name, prices.Format(p.Price), p.Stock)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d products\n", res.TotalProducts)
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "currency code for prices (default from config)")

	return cmd
}

func parentsCmd() *cobra.Command {
	var editID int

	cmd := &cobra.Command{
		Use:   "parents",
		Short: "List the categories that can be chosen as parent",
		Long: `List valid parents for a new category, or with --for the valid parents of an
existing category (never the category itself or one of its descendants).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			view, err := loadView(cmd, a, string(model.StatusAll), false)
			if err != nil {
				return err
			}

			editor := admin.NewCreateEditor(a.client, a.notify, a.validator, view.Forest(), nil)
			if editID != 0 {
				target := view.Find(editID)
				if target == nil {
					return fmt.Errorf("category %d: %w", editID, common.ErrNotFound)
				}
				editor = admin.NewEditEditor(a.client, a.notify, a.validator, view.Forest(), target)
			}

			fmt.Fprintln(a.out, cli.FormatTitle(editor.Title()))
			fmt.Fprintf(a.out, "%6s  %s\n", "-", "(no parent)")
			for _, e := range editor.AvailableParents() {
				fmt.Fprintf(a.out, "%6d  %s\n", e.Category.ID, admin.ParentLabel(e))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&editID, "for", 0, "ID of the category being moved")

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		parentID    int
		description string
		inactive    bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Long:  `Create a category at the root, or below --parent.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			view, err := loadView(cmd, a, string(model.StatusAll), false)
			if err != nil {
				return err
			}

			var parent *model.Category
			if parentID != 0 {
				if parent = view.Find(parentID); parent == nil {
					return fmt.Errorf("parent category %d: %w", parentID, common.ErrNotFound)
				}
			}

			editor := admin.NewCreateEditor(a.client, a.notify, a.validator, view.Forest(), parent)
			form := editor.Defaults()
			form.Name = args[0]
			form.Description = description
			form.IsActive = !inactive

			created, err := editor.Submit(commandContext(cmd), form)
			if err != nil {
				printFieldErrors(a.out, err)
				return reported(err)
			}

			fmt.Fprintln(a.out, cli.SuccessStyle.Render(fmt.Sprintf("%s Created category %q (ID: %d)", cli.SuccessIcon, created.Name, created.ID)))
			return nil
		},
	}

	cmd.Flags().IntVar(&parentID, "parent", 0, "ID of the parent category")
	cmd.Flags().StringVar(&description, "description", "", "category description")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the category inactive")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name        string
		description string
		parentID    int
		toRoot      bool
		active      bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update or move a category",
		Long:  `Change the name, description or status of a category, or move it with --parent or --root.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("name") && !flags.Changed("description") && !flags.Changed("parent") &&
				!toRoot && !flags.Changed("active") {
				return fmt.Errorf("must specify at least one of --name, --description, --parent, --root or --active")
			}
			if toRoot && flags.Changed("parent") {
				return fmt.Errorf("--parent and --root cannot be used together")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			view, err := loadView(cmd, a, string(model.StatusAll), false)
			if err != nil {
				return err
			}

			target := view.Find(id)
			if target == nil {
				return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
			}

			editor := admin.NewEditEditor(a.client, a.notify, a.validator, view.Forest(), target)
			form := editor.Defaults()
			if flags.Changed("name") {
				form.Name = name
			}
			if flags.Changed("description") {
				form.Description = description
			}
			if flags.Changed("active") {
				form.IsActive = active
			}
			switch {
			case toRoot:
				form.ParentID = nil
			case flags.Changed("parent"):
				form.ParentID = model.IntPtr(parentID)
			}

			updated, err := editor.Submit(commandContext(cmd), form)
			if err != nil {
				printFieldErrors(a.out, err)
				return reported(err)
			}

			fmt.Fprintln(a.out, cli.SuccessStyle.Render(fmt.Sprintf("%s Updated category %q (level %d)", cli.SuccessIcon, updated.Name, updated.Level)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().IntVar(&parentID, "parent", 0, "ID of the new parent")
	cmd.Flags().BoolVar(&toRoot, "root", false, "move the category to the root")
	cmd.Flags().BoolVar(&active, "active", true, "set the status")

	return cmd
}

// printFieldErrors lists per-field problems of a rejected form.
func printFieldErrors(out io.Writer, err error) {
	msgs := admin.ErrorMessages(err)
	if len(msgs) == 0 {
		return
	}
	var local validation.Errors
	if !errors.As(err, &local) {
		// Backend field errors are already part of the notification.
		return
	}
	for _, field := range slices.Sorted(maps.Keys(msgs)) {
		fmt.Fprintf(out, "  %s %s: %s\n", cli.ErrorIcon, field, msgs[field])
	}
}

func statusCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Activate or deactivate a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			view, err := loadView(cmd, a, string(model.StatusAll), force)
			if err != nil {
				return err
			}

			changed, err := view.ToggleStatus(commandContext(cmd), id)
			if err != nil {
				return reported(err)
			}
			if !changed {
				fmt.Fprintln(a.out, cli.InfoStyle.Render("Cancelled"))
				return nil
			}
			if c := view.Find(id); c != nil {
				fmt.Fprintf(a.out, "%s is now %s\n", c.Name, cli.FormatStatus(c.IsActive))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. The backend refuses categories that still have active subcategories.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			view, err := loadView(cmd, a, string(model.StatusAll), force)
			if err != nil {
				return err
			}

			deleted, err := view.Delete(commandContext(cmd), id)
			if err != nil {
				return reported(err)
			}
			if !deleted {
				fmt.Fprintln(a.out, cli.InfoStyle.Render("Cancelled"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")

	return cmd
}

func browseCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the category tree interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			filter := a.cfg.UI.Filter
			if status != "" {
				if filter, err = model.ParseStatusFilter(status); err != nil {
					return err
				}
			}

			return tui.Run(commandContext(cmd), a.client, tui.Config{
				Theme:  themes.ByName(a.cfg.UI.Theme),
				Filter: filter,
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "initial status filter (active, inactive, all)")

	return cmd
}
