package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/deckpack/internal/config"
	"github.com/hpungsan/deckpack/internal/deck"
	"github.com/hpungsan/deckpack/internal/errors"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Settings) *cli.App {
	app := &cli.App{
		Name:    "deckpack",
		Usage:   "Deck package editor",
		Version: Version,
		Commands: []*cli.Command{
			cardsCmd(),
			addImageCmd(cfg),
			removeImageCmd(cfg),
			setFieldCmd(cfg),
			newCardCmd(cfg),
			deleteCardCmd(cfg),
			settingsCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// outFlag is shared by all mutating commands.
func outFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name: "out", Aliases: []string{"o"},
		Usage: "Output package path (defaults per save_mode setting)",
	}
}

// cardsCmd creates the cards command.
func cardsCmd() *cli.Command {
	return &cli.Command{
		Name:      "cards",
		Usage:     "List the cards of a deck package as JSON",
		ArgsUsage: "<package>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("package path is required"))
			}

			cards, err := deck.Parse(c.Args().First())
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"ok": true, "cards": cards})
		},
	}
}

// addImageCmd creates the add-image command.
func addImageCmd(cfg *config.Settings) *cli.Command {
	return &cli.Command{
		Name:      "add-image",
		Usage:     "Append an image file to a note field and write the edited package",
		ArgsUsage: "<package> <note-id> <field> <image-file>",
		Flags:     []cli.Flag{outFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 4 {
				return outputError(errors.NewInvalidRequest("usage: add-image <package> <note-id> <field> <image-file>"))
			}
			noteID, err := parseID(c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}
			imagePath := c.Args().Get(3)
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return outputError(errors.NewIOFailure(err))
			}

			return withSession(c, cfg, func(s *deck.Session) (any, error) {
				uri, err := s.AddImage(noteID, c.Args().Get(2), data, filepath.Ext(imagePath))
				if err != nil {
					return nil, err
				}
				return map[string]any{"uri": uri}, nil
			})
		},
	}
}

// removeImageCmd creates the remove-image command.
func removeImageCmd(cfg *config.Settings) *cli.Command {
	return &cli.Command{
		Name:      "remove-image",
		Usage:     "Remove the Nth image from a note field and write the edited package",
		ArgsUsage: "<package> <note-id> <field> <index>",
		Flags:     []cli.Flag{outFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 4 {
				return outputError(errors.NewInvalidRequest("usage: remove-image <package> <note-id> <field> <index>"))
			}
			noteID, err := parseID(c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}
			index, err := strconv.Atoi(c.Args().Get(3))
			if err != nil {
				return outputError(errors.NewInvalidRequest("index must be an integer"))
			}

			return withSession(c, cfg, func(s *deck.Session) (any, error) {
				return nil, s.RemoveImage(noteID, c.Args().Get(2), index)
			})
		},
	}
}

// setFieldCmd creates the set-field command.
func setFieldCmd(cfg *config.Settings) *cli.Command {
	return &cli.Command{
		Name:      "set-field",
		Usage:     "Replace a note field's value and write the edited package (value from arg or stdin)",
		ArgsUsage: "<package> <note-id> <field> [value]",
		Flags:     []cli.Flag{outFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 3 {
				return outputError(errors.NewInvalidRequest("usage: set-field <package> <note-id> <field> [value]"))
			}
			noteID, err := parseID(c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}

			var value string
			if c.NArg() >= 4 {
				value = c.Args().Get(3)
			} else if stdinHasData() {
				value, err = readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			} else {
				return outputError(errors.NewInvalidRequest("value must be given as an argument or piped via stdin"))
			}

			return withSession(c, cfg, func(s *deck.Session) (any, error) {
				return nil, s.UpdateField(noteID, c.Args().Get(2), value)
			})
		},
	}
}

// newCardCmd creates the new-card command.
func newCardCmd(cfg *config.Settings) *cli.Command {
	return &cli.Command{
		Name:      "new-card",
		Usage:     "Create an empty card for a model and write the edited package",
		ArgsUsage: "<package> <model-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "position", Aliases: []string{"p"}, Value: -1, Usage: "Zero-based insert position (appends when omitted)"},
			outFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: new-card <package> <model-id>"))
			}
			modelID, err := parseID(c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}

			var position *int
			if p := c.Int("position"); p >= 0 {
				position = &p
			}

			return withSession(c, cfg, func(s *deck.Session) (any, error) {
				card, err := s.CreateCard(modelID, position)
				if err != nil {
					return nil, err
				}
				return map[string]any{"card": card}, nil
			})
		},
	}
}

// deleteCardCmd creates the delete-card command.
func deleteCardCmd(cfg *config.Settings) *cli.Command {
	return &cli.Command{
		Name:      "delete-card",
		Usage:     "Delete a card and its note and write the edited package",
		ArgsUsage: "<package> <note-id>",
		Flags:     []cli.Flag{outFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("usage: delete-card <package> <note-id>"))
			}
			noteID, err := parseID(c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}

			return withSession(c, cfg, func(s *deck.Session) (any, error) {
				return nil, s.DeleteCard(noteID)
			})
		},
	}
}

// settingsCmd creates the settings command.
func settingsCmd(cfg *config.Settings) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or update persisted settings",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "save-mode", Usage: "Set the export save mode: copy|overwrite"},
		},
		Action: func(c *cli.Context) error {
			if mode := c.String("save-mode"); mode != "" {
				if mode != config.SaveModeCopy && mode != config.SaveModeOverwrite {
					return outputError(errors.NewInvalidRequest("save-mode must be copy or overwrite"))
				}
				cfg.SaveMode = mode
				if err := cfg.Save(config.DefaultBaseDir()); err != nil {
					return outputError(errors.NewIOFailure(err))
				}
			}
			return outputJSON(cfg)
		},
	}
}

// withSession runs a one-shot edit: open the package, apply fn, export, close.
// The payload returned by fn is merged into the success output.
func withSession(c *cli.Context, cfg *config.Settings, fn func(*deck.Session) (any, error)) error {
	pkgPath := c.Args().First()
	session := deck.NewSession(pkgPath)
	if _, err := session.Open(); err != nil {
		return outputError(err)
	}
	defer session.Close()

	extra, err := fn(session)
	if err != nil {
		return outputError(err)
	}

	out := c.String("out")
	if out == "" {
		out = cfg.ExportTarget(pkgPath)
	}
	if err := session.Export(out); err != nil {
		return outputError(err)
	}

	result := map[string]any{"ok": true, "path": out}
	if m, ok := extra.(map[string]any); ok {
		for k, v := range m {
			result[k] = v
		}
	}
	return outputJSON(result)
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if dErr, ok := err.(*errors.DeckError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", dErr.Code, dErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseID parses a decimal note or model id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
