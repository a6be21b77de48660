package main

import (
	"github.com/Veraticus/sheetboard/internal/tui"
	"github.com/Veraticus/sheetboard/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dashboard]",
		Short: "Live terminal dashboard",
		Long: `Show a dashboard in the terminal and refresh it from the sheet in the background.

Keys: t/y/w/m/c pick the period and ←/→ move the custom month. f switches
between the group column and the dashboard's category columns, o cycles the
value of that column and x clears it. n cycles the charted metric, r
refreshes now and q quits.

--filter values apply from the start; a value picked with o replaces the
--filter value of its column.

Without a dashboard name the watch.dashboard setting is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	addSelectionFlags(cmd)
	cmd.Flags().String("theme", "", "color theme (default, catppuccin)")
	cmd.Flags().Bool("no-cache", false, "do not read or write the snapshot cache")
	_ = viper.BindPFlag("watch.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	noCache, _ := cmd.Flags().GetBool("no-cache")
	a, err := newApp(ctx, noCache)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	name := viper.GetString("watch.dashboard")
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" {
		name = a.catalog.Names()[0]
	}
	d, err := a.catalog.Get(name)
	if err != nil {
		return err
	}

	sel, err := selectionFromFlags(cmd, a.settings.DefaultPeriod)
	if err != nil {
		return err
	}

	return tui.Run(ctx, a.loader(d), a.settings.Refresh(d.RefreshInterval), a.logger,
		tui.WithSelection(sel),
		tui.WithTheme(themes.ByName(viper.GetString("watch.theme"))),
	)
}
