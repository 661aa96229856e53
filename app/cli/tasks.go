package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"zodo/app/models"
	"zodo/app/tui"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:     "list [ref]",
	Aliases: []string{"ls"},
	Short:   "Show the task tree",
	Long: `Show the task tree from the root, or from ref when given.

Children of collapsed tasks are hidden unless --all is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		ref := "0"
		if len(args) == 1 {
			ref = args[0]
		}
		v, err := Service.View(cmd.Context(), ref)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderTree(v, listAll))
		return nil
	},
}

var addUnder string

var addCmd = &cobra.Command{
	Use:   "add [name...]",
	Short: "Add a task",
	Long: `Add a task as the last child of --under (the root by default).

Without a name you are asked for one; an empty answer uses the default name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		var v models.TaskView
		if len(args) == 0 {
			added, err := Service.AddPrompted(cmd.Context(), addUnder)
			if err != nil {
				return err
			}
			if added == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
			v = *added
		} else {
			var err error
			if v, err = Service.Add(cmd.Context(), addUnder, strings.Join(args, " ")); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", v.Path, v.Name)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <ref> [name...]",
	Short: "Rename a task",
	Long:  `Rename a task. Without a name you are asked for one; an empty answer keeps the current name.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		var (
			v   models.TaskView
			err error
		)
		if len(args) == 1 {
			v, err = Service.RenamePrompted(cmd.Context(), args[0])
		} else {
			v, err = Service.Rename(cmd.Context(), args[0], strings.Join(args[1:], " "))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", v.Path, v.Name)
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <ref> [true|false]",
	Short: "Mark a task done",
	Long: `Mark a task done, or set its done flag explicitly.

A task with children is done exactly when all of its children are done, so
setting the flag on it has no lasting effect.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value any = true
		if len(args) == 2 {
			value = parseFlagValue(args[1])
		}
		return setFlag(cmd, args[0], "done", value)
	},
}

var undoneCmd = &cobra.Command{
	Use:   "undone <ref>",
	Short: "Mark a task not done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFlag(cmd, args[0], "done", false)
	},
}

var expandCmd = &cobra.Command{
	Use:   "expand <ref>",
	Short: "Show a task's children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFlag(cmd, args[0], "show", true)
	},
}

var collapseCmd = &cobra.Command{
	Use:   "collapse <ref>",
	Short: "Hide a task's children",
	Long:  `Hide a task's children. Tasks without children always stay expanded.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setFlag(cmd, args[0], "show", false)
	},
}

var mvCmd = &cobra.Command{
	Use:     "mv <ref> <parent>",
	Aliases: []string{"move"},
	Short:   "Move a task under a new parent",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		v, err := Service.Move(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved to %s %s\n", v.Path, v.Name)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <ref>",
	Aliases: []string{"remove"},
	Short:   "Remove a task and its subtree",
	Long: `Remove a task and everything under it. Removing the root (0) clears the
whole tree. You are asked to confirm unless --yes is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("task service not initialized")
		}
		removed, err := Service.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintln(cmd.OutOrStdout(), "removed")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "kept")
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include children of collapsed tasks")
	addCmd.Flags().StringVarP(&addUnder, "under", "u", "0", "ref of the parent task")

	rootCmd.AddCommand(listCmd, addCmd, renameCmd, doneCmd, undoneCmd, expandCmd, collapseCmd, mvCmd, rmCmd)
}

// parseFlagValue turns a boolean word into a bool. Anything else is passed
// through as text and rejected by the service.
func parseFlagValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func setFlag(cmd *cobra.Command, ref, field string, value any) error {
	if Service == nil {
		return fmt.Errorf("task service not initialized")
	}
	var (
		v   models.TaskView
		err error
	)
	if field == "done" {
		v, err = Service.SetDone(cmd.Context(), ref, value)
	} else {
		v, err = Service.SetShow(cmd.Context(), ref, value)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s done=%t show=%t\n", v.Path, v.Name, v.Done, v.Show)
	return nil
}
