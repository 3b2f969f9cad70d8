package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayusman/airpaint/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change stored settings",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective configuration and stored overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(viper.GetString("store.path"))
		if err != nil {
			return err
		}
		defer st.Close()

		stored, err := st.Settings().All()
		if err != nil {
			return err
		}
		if _, err := loadConfig(st); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Key", "Value", "Stored"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		for _, key := range config.Keys() {
			mark := ""
			if _, ok := stored[key]; ok {
				mark = "*"
			}
			table.Append([]string{key, fmt.Sprint(viper.Get(key)), mark})
		}
		table.Render()
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting override, applied on next start",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		st, err := openStore(viper.GetString("store.path"))
		if err != nil {
			return err
		}
		defer st.Close()

		if err := config.CheckSetting(viper.GetViper(), st.Settings(), key, value); err != nil {
			return err
		}
		if err := st.Settings().Set(key, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored setting override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(viper.GetString("store.path"))
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Settings().Delete(args[0])
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configSetCmd, configUnsetCmd)
}
