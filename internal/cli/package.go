package cli

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/catattack05/functionary/internal/archive"
	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/manifest"
	"github.com/catattack05/functionary/internal/parser"
	"github.com/catattack05/functionary/internal/schema"
)

//go:embed templates
var scaffolds embed.FS

func newCreateCmd() *cobra.Command {
	var language, outDir string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Generate an example package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Join(outDir, args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Generating %s package named %s\n", language, args[0])
			return createPackage(dir, args[0], language)
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "python", "package language")
	cmd.Flags().StringVarP(&outDir, "output-directory", "o", ".", "parent directory of the new package")
	return cmd
}

func createPackage(dir, name, language string) error {
	root := path.Join("templates", language)
	if _, err := fs.Stat(scaffolds, root); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, language)
	}
	if _, err := os.Stat(filepath.Join(dir, manifest.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s: %w", manifest.FileName, dir, domain.ErrAlreadyExists)
	}

	err := fs.WalkDir(scaffolds, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := scaffolds.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	out, err := manifest.Marshal(manifest.New(name, language))
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifest.FileName), out, 0o644)
}

func newGenschemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genschema [PATH]",
		Short: "Derive the function list in package.yaml from the function source file",
		Long: `genschema parses the package's function file and rewrites the functions
section of package.yaml. Display names, summaries and types entered by hand are
kept for functions and parameters that still exist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnings, err := genschema(packageDir(args))
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", filepath.Join(packageDir(args), manifest.FileName))
			return nil
		},
	}
}

func genschema(dir string) ([]parser.Warning, error) {
	file := filepath.Join(dir, manifest.FileName)
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not find %s: %w", file, domain.ErrNotFound)
		}
		return nil, err
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	fns, warnings, err := parser.ParseDir(m.Package.Language, dir)
	if err != nil {
		return warnings, err
	}
	manifest.MergeFunctions(m, fns)

	out, err := manifest.Marshal(m)
	if err != nil {
		return warnings, err
	}
	return warnings, os.WriteFile(file, out, 0o644)
}

func newPackCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pack [PATH]",
		Short: "Create the gzipped tarball that publish uploads",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := packageDir(args)
			contents, m, err := packPackage(dir)
			if err != nil {
				return err
			}
			if output == "" {
				output = m.Package.Name + ".tar.gz"
			}
			if err := os.WriteFile(output, contents, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", output, len(contents))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default <package name>.tar.gz)")
	return cmd
}

// packPackage 打包目录，并按服务端的规则预先校验清单与 schema。
func packPackage(dir string) ([]byte, *manifest.Manifest, error) {
	var buf bytes.Buffer
	if err := archive.Pack(dir, &buf); err != nil {
		return nil, nil, err
	}
	m, err := archive.ReadManifest(buf.Bytes())
	if err != nil {
		return nil, nil, err
	}
	if err := schema.ValidatePackage(m.Package); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), m, nil
}
