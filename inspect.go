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
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/patapancakes/expak/pakcache"
)

var loaders = []pakcache.Loader{
	pakcache.XPAKLoader{},
	pakcache.XSUBLoader{},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <package>",
	Short: "Print the header of a single package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := loaderFor(args[0])
		if err != nil {
			return err
		}

		pkg, err := loader.LoadPackage(args[0], 0)
		if err != nil {
			return fmt.Errorf("failed to load package: %w", err)
		}

		writeHeader(cmd.OutOrStdout(), pkg)

		return nil
	},
}

func loaderFor(path string) (pakcache.Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))

	for _, l := range loaders {
		if l.Extension() == ext {
			return l, nil
		}
	}

	return nil, fmt.Errorf("unknown package type %q", ext)
}

func writeHeader(w io.Writer, pkg pakcache.Package) {
	hex := func(v uint64) string {
		return fmt.Sprintf("0x%x", v)
	}

	pairs := [][2]string{
		{"Magic", fmt.Sprintf("0x%08x", pkg.Header.Magic)},
		{"Version", fmt.Sprintf("0x%x", pkg.Header.Version)},
		{"Files", strconv.FormatUint(pkg.Header.FileCount, 10)},
		{"Data Offset", hex(pkg.Header.DataOffset)},
		{"Data Size", hex(pkg.Header.DataSize)},
		{"Hashes", strconv.FormatUint(pkg.Header.HashCount, 10)},
		{"Hash Offset", hex(pkg.Header.HashOffset)},
		{"Hash Size", hex(pkg.Header.HashSize)},
		{"Index Entries", strconv.FormatUint(pkg.Header.IndexCount, 10)},
		{"Index Offset", hex(pkg.Header.IndexOffset)},
		{"Index Size", hex(pkg.Header.IndexSize)},
		{"Aligned Commands", strconv.FormatBool(pkg.AlignCommands)},
		{"Objects", strconv.Itoa(len(pkg.Entries))},
	}

	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(":")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}

	table.Render()
}
