package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/notargets/BEMKernel/device"
	"github.com/notargets/BEMKernel/examples"
	"github.com/notargets/BEMKernel/operators"
	"github.com/notargets/BEMKernel/operators/farfield"
	"github.com/notargets/BEMKernel/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDielectricCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dielectric",
		Short: "Plane wave scattering by dielectric spheres",
		Long: `Solves the multitrace formulation for the configured spheres and prints
the bistatic radar cross section in dB followed by the total electric field
magnitude on a grid in the plane z = 0.`,
		Args: cobra.NoArgs,
		RunE: a.runDielectric,
	}
}

func newPotentialCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "potential",
		Short: "Decay of the electric potential of a sphere",
		Args:  cobra.NoArgs,
		RunE:  a.runPotential,
	}
}

// options converts the assembly configuration, opening the OCCA device when
// one is configured. The returned function releases the device.
func (a *app) options() ([]operators.Option, func(), error) {
	opts, err := a.cfg.Options()
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.Assembly.Device == "" {
		return opts, func() {}, nil
	}
	dev, err := device.Create(a.logger, a.cfg.Assembly.Device)
	if err != nil {
		return nil, nil, err
	}
	return append(opts, operators.WithDevice(dev)), dev.Close, nil
}

func (a *app) runDielectric(cmd *cobra.Command, args []string) error {
	opts, release, err := a.options()
	if err != nil {
		return err
	}
	defer release()

	d := a.cfg.Dielectric
	k := complex(examples.Wavenumber(d.Frequency), 0)
	problem := &examples.Dielectric{
		Wave: examples.PlaneWave{
			K:            k,
			Direction:    utils.Vec3{math.Cos(d.Theta), math.Sin(d.Theta), 0},
			Polarization: utils.Vec3(d.Polarization).Unit(),
		},
		MeshSize:    d.MeshSize,
		Options:     opts,
		Solver:      a.cfg.NewSolver(a.logger),
		BlockJacobi: a.cfg.Solver.BlockJacobi,
		Logger:      a.logger,
	}
	for _, s := range d.Spheres {
		problem.Scatterers = append(problem.Scatterers, examples.Scatterer{
			Center:   utils.Vec3(s.Center),
			Radius:   s.Radius,
			EpsilonR: complex(s.EpsilonR, 0),
			MuR:      complex(s.MuR, 0),
		})
	}
	a.logger.Info("dielectric scattering",
		zap.Int("spheres", len(problem.Scatterers)), zap.Float64("wavenumber", real(k)))

	sol, err := problem.Solve()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if d.FarFieldAngles > 0 {
		far, err := sol.FarField(farfield.Directions(d.FarFieldAngles))
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "angle_deg\trcs_db")
		for i, v := range examples.RCS(far) {
			angle := 0.
			if d.FarFieldAngles > 1 {
				angle = 180 * float64(i) / float64(d.FarFieldAngles-1)
			}
			fmt.Fprintf(w, "%.2f\t%.4f\n", angle, v)
		}
	}
	if n := d.NearField.Points; n > 0 {
		points := examples.PlanePoints(d.NearField.Extent, n)
		nf, err := sol.NearField(points)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "\nx\ty\tregion\t|E|")
		for p := range nf.Region {
			fmt.Fprintf(w, "%.4f\t%.4f\t%d\t%.6e\n",
				points.At(0, p), points.At(1, p), nf.Region[p], nf.Total.Norm(p))
		}
	}
	return w.Flush()
}

func (a *app) runPotential(cmd *cobra.Command, args []string) error {
	opts, release, err := a.options()
	if err != nil {
		return err
	}
	defer release()

	pc := a.cfg.Potential
	samples, err := examples.PotentialDecay(pc.Radius, pc.Refinement, complex(pc.Wavenumber, 0), pc.Distances, opts...)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "distance\t|E|\tr·|E|")
	for _, s := range samples {
		fmt.Fprintf(w, "%g\t%.6e\t%.6e\n", s.Distance, s.Magnitude, s.Scaled)
	}
	return w.Flush()
}
