package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ikstema/mqtt-sbergate/internal/pkg/config"
)

// EnableCommand adds the given entity ids to the set exposed to Sber.
func EnableCommand(ctx *cli.Context) error {
	return toggle(ctx, true)
}

// DisableCommand removes the given entity ids from the set exposed to Sber.
func DisableCommand(ctx *cli.Context) error {
	return toggle(ctx, false)
}

func toggle(ctx *cli.Context, enable bool) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("at least one entity id is required")
	}
	store, err := config.LoadStore()
	if err != nil {
		return err
	}
	return setEnabled(store, enable, ctx.Args().Slice()...)
}

func setEnabled(store *config.StoreConfig, enable bool, ids ...string) error {
	reg, err := openRegistry(store)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if enable {
			err = reg.Enable(id)
		} else {
			err = reg.Disable(id)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return nil
}
