// Copyright 2026 The Art Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artlang/art/v1/aot"
)

func newBuildCmd() *cobra.Command {
	var profilePath, outPath string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Produce an AOT inline-candidate plan from a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if profilePath == "" || outPath == "" {
				return usageErr(fmt.Errorf("art build: --with-profile and --out are required"))
			}
			return runBuild(profilePath, outPath)
		},
	}
	cmd.Flags().StringVar(&profilePath, "with-profile", "", "profile JSON path (spec.md §6 \"Profile JSON\")")
	cmd.Flags().StringVar(&outPath, "out", "", "plan JSON output path")
	return cmd
}

func runBuild(profilePath, outPath string) error {
	bs, err := os.ReadFile(profilePath)
	if err != nil {
		return readErr(fmt.Errorf("art build: read %s: %w", profilePath, err))
	}
	profile, err := aot.LoadProfile(bs)
	if err != nil {
		return readErr(fmt.Errorf("art build: %w", err))
	}
	plan, err := aot.Score(profile)
	if err != nil {
		return runtimeErr(fmt.Errorf("art build: %w", err))
	}
	aot.Normalize(plan, nil)

	if err := os.WriteFile(outPath, aot.MarshalPlan(*plan), 0o644); err != nil {
		return readErr(fmt.Errorf("art build: write %s: %w", outPath, err))
	}

	pkg, err := maybeBuildPackage(outPath)
	if err != nil {
		return runtimeErr(fmt.Errorf("art build: %w", err))
	}
	artifact := aot.BuildArtifact(filepath.Base(profilePath), *plan, pkg)
	bs, err = json.Marshal(artifact)
	if err != nil {
		return err
	}
	fmt.Println(string(bs))
	return nil
}

// maybeBuildPackage implements spec.md §6's ART_BUILD_PACKAGE amendment:
// when the env var is set and a sibling "<plan>.artifact_files/"
// directory exists, tar+gzip it and return its path and digest.
func maybeBuildPackage(planPath string) (*aot.PackageArchive, error) {
	if os.Getenv("ART_BUILD_PACKAGE") != "1" {
		return nil, nil
	}
	srcDir := planPath + ".artifact_files"
	info, err := os.Stat(srcDir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	err = filepath.Walk(srcDir, func(path string, fi os.FileInfo, err error) error {
		if err != nil || fi.IsDir() {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		hdr := &tar.Header{Name: rel, Size: int64(len(data)), Mode: 0o644}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	tarballPath := planPath + ".tar.gz"
	if err := os.WriteFile(tarballPath, buf.Bytes(), 0o644); err != nil {
		return nil, err
	}
	return &aot.PackageArchive{Path: tarballPath, SHA256: aot.SHA256File(buf.Bytes())}, nil
}
