package cmd

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/df07/go-sequential-raytracer/pkg/backend"
	"github.com/df07/go-sequential-raytracer/pkg/materials"
	"github.com/df07/go-sequential-raytracer/pkg/optic"
	"github.com/df07/go-sequential-raytracer/pkg/raygen"
	"github.com/df07/go-sequential-raytracer/pkg/rays"
	"github.com/df07/go-sequential-raytracer/pkg/surfaces"
)

var traceCmd = &cobra.Command{
	Use:   "trace <system.json>",
	Short: "Trace a ray bundle through a system and write spot diagrams",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrace,
}

func init() {
	traceCmd.Flags().Int("field", 0, "field point index")
	traceCmd.Flags().Int("wavelength", 0, "wavelength index")
	traceCmd.Flags().Int("rings", 6, "hexapolar pupil rings")
	traceCmd.Flags().String("out", "output", "output directory")
	traceCmd.Flags().Bool("png", true, "write a spot-diagram PNG")
	traceCmd.Flags().Bool("csv", true, "write the final ray state as CSV")
	for _, flag := range []string{"field", "wavelength", "rings", "out", "png", "csv"} {
		if err := viper.BindPFlag(flag, traceCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		surfaces.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	system, err := optic.Load(f, optic.LoadOptions{Registry: materials.NewRegistry()})
	if err != nil {
		return err
	}

	be, err := backend.New(backend.Config{Device: viper.GetString("device")})
	if err != nil {
		return err
	}

	field := viper.GetInt("field")
	wl := viper.GetInt("wavelength")
	px, py := raygen.HexapolarPupil(viper.GetInt("rings"))
	out, err := system.TraceField(be, field, wl, px, py)
	if err != nil {
		return err
	}

	valid := 0
	for i := 0; i < out.Len(); i++ {
		if out.At(i).Intensity > 0 {
			valid++
		}
	}
	fmt.Printf("Traced %d rays (%d valid) at field %d, wavelength %g um\n",
		out.Len(), valid, field, system.Wavelengths[wl])
	if fo, err := system.Group.FirstOrderProperties(system.Wavelengths[wl]); err == nil {
		fmt.Printf("EFL %.4f  BFL %.4f\n", fo.EFL, fo.BFL)
	}

	outDir := viper.GetString("out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	stem := fmt.Sprintf("spot_f%d_w%d", field, wl)

	if viper.GetBool("png") {
		path := filepath.Join(outDir, stem+".png")
		if err := writeSpotPNG(path, out, 512); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
	}
	if viper.GetBool("csv") {
		path := filepath.Join(outDir, stem+".csv")
		if err := writeRayCSV(path, out); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

func writeRayCSV(path string, bundle *rays.Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"x", "y", "z", "l", "m", "n", "intensity", "opl"}); err != nil {
		return err
	}
	for i := 0; i < bundle.Len(); i++ {
		r := bundle.At(i)
		row := []float64{
			r.Position.X, r.Position.Y, r.Position.Z,
			r.Direction.X, r.Direction.Y, r.Direction.Z,
			r.Intensity, r.OPL,
		}
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
