package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/relay-service/internal/entity"
)

func main() {
	var root = &cobra.Command{
		Use:           "relay",
		Short:         "Extract articles from web pages and save them to editor platforms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCMD(),
		extractCMD(),
		loginCMD(),
		logoutCMD(),
		checkCMD(),
		publishCMD(),
		transferCMD(),
		historyCMD(),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// channelArg validates the channel given as first positional argument.
func channelArg(args []string) (entity.Channel, error) {
	return entity.ParseChannel(args[0])
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
