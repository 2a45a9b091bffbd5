package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/amvnews/internal/domain"
)

func newShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "显示作品详情（优先读缓存）",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			if err := checkFormat(cmd, format); err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			amv, err := sess.catalog.Get(ctx, id)
			if err != nil {
				return err
			}
			return render(a.stdout, format, amv, func(w io.Writer) error {
				return writeAMV(w, amv)
			})
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", formatText, "输出格式：text|json|yaml")
}

func checkFormat(cmd *cobra.Command, format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return usageErrorf(cmd, "--format 只能是 text、json 或 yaml，实际是 %q", format)
	}
}

// render 按 format 输出 v；text 格式交给 text 回调。
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

func writeAMV(w io.Writer, amv domain.AMV) error {
	var b strings.Builder
	title := amv.Info.Title
	if title == "" {
		title = "（无标题）"
	}
	fmt.Fprintf(&b, "%s\n", title)
	field := func(name, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %-10s %s\n", name+":", value)
	}

	field("id", fmt.Sprint(amv.ID))
	field("author", amv.Info.Author)
	field("genre", amv.Info.Genre)
	field("rating", fmt.Sprintf("%s, %d votes", formatRating(amv.Info.Rating), amv.Info.Votes))
	if amv.Info.UserRating > 0 {
		field("my rating", formatRating(amv.Info.UserRating))
	} else {
		field("my rating", "-")
	}
	field("aired", amv.Info.Aired)
	field("added", amv.Info.Added)
	if amv.Video.Duration > 0 {
		field("duration", formatDuration(amv.Video.Duration))
	}
	if amv.Video.Size > 0 {
		field("size", humanize.IBytes(uint64(amv.Video.Size)))
	}
	field("video", formatVideo(amv.Video))
	field("audio", amv.Video.AudioCodec)
	if len(amv.Subtitles) > 0 {
		parts := make([]string, 0, len(amv.Subtitles))
		for _, s := range amv.Subtitles {
			parts = append(parts, fmt.Sprintf("#%d %s", s.ID, s.Language))
		}
		field("subtitles", strings.Join(parts, ", "))
	}
	for i, img := range amv.Images {
		name := "poster"
		if i > 0 {
			name = "fanart"
		}
		field(name, img)
	}
	if !amv.FetchedAt.IsZero() {
		field("fetched", amv.FetchedAt.Local().Format(time.DateTime))
	}
	if d := strings.TrimSpace(amv.Info.Description); d != "" {
		fmt.Fprintf(&b, "\n%s\n", d)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatRating 同时给出站点的 5 分制与媒体库的 10 分制。
func formatRating(r float64) string {
	return fmt.Sprintf("%.1f/5 (%.1f/10)", r, r*2)
}

func formatDuration(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

func formatVideo(v domain.Video) string {
	var parts []string
	if v.VideoCodec != "" {
		parts = append(parts, v.VideoCodec)
	}
	if v.Width > 0 && v.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", v.Width, v.Height))
	}
	if v.Aspect > 0 {
		parts = append(parts, fmt.Sprintf("(%.2f)", v.Aspect))
	}
	return strings.Join(parts, " ")
}
