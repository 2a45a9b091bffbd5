package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/amvnews/internal/logger"
)

func newRateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rate ID MARK",
		Short: "给作品评分（1..5）；开启 download_evaluated 时按阈值自动下载",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			mark, err := strconv.Atoi(args[1])
			if err != nil || mark < 1 || mark > 5 {
				return usageErrorf(cmd, "评分只能是 1..5，实际是 %q", args[1])
			}

			ctx := cmd.Context()
			sess, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			// 评分只更新已缓存的记录：先保证缓存里有它。
			amv, err := sess.catalog.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := sess.catalog.SetUserRating(ctx, id, mark); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "已评分：#%d %s -> %d/5\n", id, amv.Info.Title, mark)

			if !a.settings.ShouldDownloadAfterRating(mark) {
				return nil
			}
			logger.Info("评分达到阈值，自动下载", "id", id, "mark", mark, "threshold", a.settings.DownloadThreshold)
			rep, err := a.syncOne(ctx, sess, id, true)
			if err != nil {
				return fmt.Errorf("自动下载失败：%w", err)
			}
			return writeSummary(a.stdout, rep)
		},
	}
}
