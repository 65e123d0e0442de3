// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command uimfcat is a thin inspection CLI over a UIMF file: it never owns
// any decoding or parameter logic, only calls into package store and
// formats the result.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/pnnl-comp-mass-spec/go-uimf/internal/store"
	"github.com/pnnl-comp-mass-spec/go-uimf/pkg/uimf"
)

func main() {
	app := &cli.App{
		Name:  "uimfcat",
		Usage: "inspect a UIMF file",
		Commands: []*cli.Command{
			{
				Name:      "cat",
				Usage:     "print global params, a frame summary, and optionally an XIC",
				ArgsUsage: "<file.uimf>",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "xic", Usage: "target m/z to extract a chromatogram for"},
					&cli.Float64Flag{Name: "tol", Value: 0.1, Usage: "tolerance around --xic, in units of --tol-kind"},
					&cli.StringFlag{Name: "tol-kind", Value: "mz", Usage: "tolerance kind: mz or ppm"},
					&cli.StringFlag{Name: "frame-type", Value: "MS1", Usage: "frame type to restrict to: MS1, MS2, Calibration, Prescan"},
				},
				Action: runCat,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "uimfcat:", err)
		os.Exit(1)
	}
}

func runCat(cCtx *cli.Context) error {
	path := cCtx.Args().First()
	if path == "" {
		return cli.Exit("missing <file.uimf> argument", 1)
	}

	reader, err := store.OpenRead(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer reader.Close()

	global, err := reader.GetGlobalParams()
	if err != nil {
		return fmt.Errorf("read global params: %w", err)
	}
	printGlobalParams(global)

	frameType, err := parseFrameType(cCtx.String("frame-type"))
	if err != nil {
		return err
	}
	if err := printFrameSummary(reader, global); err != nil {
		return fmt.Errorf("frame summary: %w", err)
	}

	if cCtx.IsSet("xic") {
		tolKind, err := parseTolKind(cCtx.String("tol-kind"))
		if err != nil {
			return err
		}
		if err := printXIC(reader, cCtx.Float64("xic"), cCtx.Float64("tol"), tolKind, frameType); err != nil {
			return fmt.Errorf("xic: %w", err)
		}
	}
	return nil
}

func printGlobalParams(g uimf.GlobalParams) {
	fmt.Println("Global Params")
	fmt.Printf("  instrument       %s\n", g.InstrumentName)
	fmt.Printf("  start time       %s\n", g.StartTime)
	fmt.Printf("  num frames       %d\n", g.NumFrames)
	fmt.Printf("  bin count        %d\n", g.BinCount)
	fmt.Printf("  bin width (ns)   %g\n", g.BinWidthNS)
	fmt.Printf("  tof correction   %g ns\n", g.TOFCorrectionNS)
	fmt.Printf("  intensity type   %s\n", g.IntensityType)
	fmt.Println()
}

func printFrameSummary(r *store.Reader, g uimf.GlobalParams) error {
	counts := make(map[uimf.FrameType]int32)
	for frame := int32(1); frame <= g.NumFrames; frame++ {
		fp, err := r.GetFrameParams(frame)
		if err != nil {
			return err
		}
		counts[fp.FrameType]++
	}

	types := make([]uimf.FrameType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	fmt.Println("Frame Summary")
	for _, t := range types {
		fmt.Printf("  %-12s %d\n", t, counts[t])
	}
	fmt.Println()
	return nil
}

func printXIC(r *store.Reader, targetMZ, tol float64, tolKind store.TolKind, frameType uimf.FrameType) error {
	points, err := r.GetXIC(targetMZ, tol, tolKind, nil, nil, frameType)
	if err != nil {
		return err
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].FrameIndex != points[j].FrameIndex {
			return points[i].FrameIndex < points[j].FrameIndex
		}
		return points[i].Scan < points[j].Scan
	})

	fmt.Printf("XIC m/z=%g tol=%g(%s)\n", targetMZ, tol, tolKind)
	fmt.Printf("  %-8s %-8s %s\n", "frame", "scan", "intensity")
	for _, p := range points {
		fmt.Printf("  %-8d %-8d %d\n", p.FrameIndex, p.Scan, p.Intensity)
	}
	return nil
}

func parseFrameType(s string) (uimf.FrameType, error) {
	switch s {
	case "MS1":
		return uimf.FrameTypeMS1, nil
	case "MS2":
		return uimf.FrameTypeMS2, nil
	case "Calibration":
		return uimf.FrameTypeCalibration, nil
	case "Prescan":
		return uimf.FrameTypePrescan, nil
	default:
		return 0, fmt.Errorf("unknown --frame-type %q", s)
	}
}

func parseTolKind(s string) (store.TolKind, error) {
	switch store.TolKind(s) {
	case store.TolMZ, store.TolPPM:
		return store.TolKind(s), nil
	default:
		return "", fmt.Errorf("unknown --tol-kind %q", s)
	}
}
