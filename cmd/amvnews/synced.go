package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/amvnews/internal/app/download"
	"github.com/John-Robertt/amvnews/internal/scan"
)

type syncedItem struct {
	ID     int    `json:"id" yaml:"id"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
}

func newSyncedCmd(a *app) *cobra.Command {
	var (
		details bool
		format  string
	)
	cmd := &cobra.Command{
		Use:   "synced",
		Short: "列出下载目录中已同步（存在 <ID>.sync）的作品",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(cmd, format); err != nil {
				return err
			}
			dest := strings.TrimSpace(a.settings.DownloadPath)
			if dest == "" {
				return download.ErrNoDestination
			}

			ids, err := scan.Synced(a.fs, dest)
			if err != nil {
				return err
			}
			items := make([]syncedItem, 0, len(ids))
			for _, id := range ids {
				items = append(items, syncedItem{ID: id})
			}

			if details && len(ids) > 0 {
				ctx := cmd.Context()
				sess, err := a.open(ctx)
				if err != nil {
					return err
				}
				defer sess.Close()
				for i := range items {
					amv, err := sess.catalog.Get(ctx, items[i].ID)
					if err != nil {
						return err
					}
					items[i].Title = amv.Info.Title
					items[i].Author = amv.Info.Author
				}
			}

			return render(a.stdout, format, items, func(w io.Writer) error {
				if len(items) == 0 {
					_, err := fmt.Fprintf(w, "%s 中没有已同步的作品\n", dest)
					return err
				}
				for _, it := range items {
					line := fmt.Sprintf("#%d", it.ID)
					if it.Title != "" {
						line += " " + it.Title
					}
					if it.Author != "" {
						line += " (" + it.Author + ")"
					}
					if _, err := fmt.Fprintln(w, line); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&details, "details", false, "同时显示标题与作者（读缓存，必要时访问站点）")
	addFormatFlag(cmd, &format)
	return cmd
}
