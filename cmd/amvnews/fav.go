package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/amvnews/internal/logger"
)

func newFavCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "收藏管理",
	}

	add := &cobra.Command{
		Use:   "add ID",
		Short: "加入收藏；开启 download_favourites 时自动下载",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sess, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.catalog.AddToFavourites(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "已加入收藏：#%d\n", id)

			if !a.settings.ShouldDownloadAfterFavourite() {
				return nil
			}
			logger.Info("收藏后自动下载", "id", id)
			rep, err := a.syncOne(ctx, sess, id, true)
			if err != nil {
				return fmt.Errorf("自动下载失败：%w", err)
			}
			return writeSummary(a.stdout, rep)
		},
	}

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "移出收藏",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sess, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.catalog.RemoveFromFavourites(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "已移出收藏：#%d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}
