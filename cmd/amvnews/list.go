package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/amvnews/internal/amvnews"
)

type lister struct {
	login bool
	fetch func(c *amvnews.Catalog, ctx context.Context, page int) ([]amvnews.Entry, error)
}

var (
	listFeatured  = lister{fetch: (*amvnews.Catalog).ListFeatured}
	listEvaluated = lister{login: true, fetch: (*amvnews.Catalog).ListEvaluated}
	listFavourite = lister{login: true, fetch: (*amvnews.Catalog).ListFavourite}
)

func newListCmd(a *app, use, short string, l lister) *cobra.Command {
	var (
		page   int
		format string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return usageErrorf(cmd, "--page 必须 >= 1，实际 %d", page)
			}
			if err := checkFormat(cmd, format); err != nil {
				return err
			}
			if l.login {
				if err := a.settings.RequireCredentials(); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			sess, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			entries, err := l.fetch(sess.catalog, ctx, page)
			if err != nil {
				return err
			}
			return render(a.stdout, format, entries, func(w io.Writer) error {
				return writeEntries(w, entries, page)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "页码（从 1 开始，每页 10 条）")
	addFormatFlag(cmd, &format)
	return cmd
}

func writeEntries(w io.Writer, entries []amvnews.Entry, page int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "第 %d 页没有条目\n", page)
		return err
	}
	for i, e := range entries {
		n := (page-1)*amvnews.PageSize + i + 1
		line := fmt.Sprintf("%3d. #%d %s", n, e.ID, e.Info.Title)
		if e.Info.Author != "" {
			line += " (" + e.Info.Author + ")"
		}
		line += " " + formatRating(e.Info.Rating)
		if e.Date != "" {
			line += " " + e.Date
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
