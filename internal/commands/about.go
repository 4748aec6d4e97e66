package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"botcore/internal/version"
	"botcore/pkg/cmd"
)

func aboutCommand() *cmd.Descriptor {
	return cmd.New("about").
		Description("Discover the origin of this bot").
		Category(CategoryInformation).
		Handler(func(ctx context.Context, inv *cmd.Invocation, _ cmd.Args) error {
			return reply(ctx, inv, aboutText())
		})
}

func aboutText() string {
	buildDate := "unknown"
	if version.BuildDate != "" {
		if t, err := time.Parse(time.RFC3339, version.BuildDate); err == nil {
			buildDate = t.Format("2006-01-02")
		} else {
			buildDate = "invalid date"
		}
	}
	goVer := strings.TrimPrefix(version.GoVersion, "go")
	if goVer == "" {
		goVer = "unknown"
	}
	return fmt.Sprintf("**%s** %s\nBuilt %s with Go %s", version.AppName, version.Version, buildDate, goVer)
}
