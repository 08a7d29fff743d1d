/*
	Copyright (C) 2024  Pancakes <patapancakes@pagefault.games>

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/patapancakes/expak/pakcache"
)

var listCmd = &cobra.Command{
	Use:   "list <dir>",
	Short: "List every object in the packages under dir",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		c, err := openCache(cfg, logger, args[0])
		if err != nil {
			return err
		}

		defer c.Close()

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return writeListJSON(cmd.OutOrStdout(), c.Archives(), c.Entries())
		}

		writeListTable(cmd.OutOrStdout(), c.Archives(), c.Entries())

		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "output json instead of a table")
}

type listDump struct {
	Packages []string              `json:"packages"`
	Objects  []pakcache.KeyedEntry `json:"objects"`
}

func writeListJSON(w io.Writer, packages []string, entries []pakcache.KeyedEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")

	err := enc.Encode(listDump{Packages: packages, Objects: entries})
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	return nil
}

func writeListTable(w io.Writer, packages []string, entries []pakcache.KeyedEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Package", "Offset", "Size"})

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, e := range entries {
		table.Append([]string{
			fmt.Sprintf("%016x", e.Key),
			filepath.Base(packages[e.Package]),
			fmt.Sprintf("0x%x", e.Offset),
			strconv.FormatUint(e.CompressedSize, 10),
		})
	}

	table.Render()
}
