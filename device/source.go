package device

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/BEMKernel/kernels"
)

// blockSize is the number of evaluation points per work group
const blockSize = 64

// kernelName is the entry point of every generated potential kernel
const kernelName = "assemblePotential"

// preamble defines the scalar type and the enumerations the kernel body
// switches on at compile time
func preamble(kernel kernels.KernelType, assembly kernels.AssemblyType, single bool) string {
	var sb strings.Builder
	scalar := "double"
	if single {
		scalar = "float"
	}
	fmt.Fprintf(&sb, "#define REAL %s\n", scalar)
	fmt.Fprintf(&sb, "#define BLOCK %d\n", blockSize)
	fmt.Fprintf(&sb, "#define INV4PI %.17g\n", 1/(4*math.Pi))
	for _, k := range []kernels.KernelType{kernels.LaplaceSingleLayer, kernels.LaplaceDoubleLayer,
		kernels.HelmholtzSingleLayer, kernels.HelmholtzDoubleLayer} {
		fmt.Fprintf(&sb, "#define %s %d\n", strings.ToUpper(k.String()), k)
	}
	for _, a := range []kernels.AssemblyType{kernels.DefaultScalar, kernels.MaxwellElectricField,
		kernels.MaxwellMagneticField, kernels.MaxwellElectricFarField, kernels.MaxwellMagneticFarField} {
		fmt.Fprintf(&sb, "#define %s %d\n", strings.ToUpper(a.String()), a)
	}
	fmt.Fprintf(&sb, "#define KERNEL %d\n", kernel)
	fmt.Fprintf(&sb, "#define ASSEMBLY %d\n", assembly)
	fmt.Fprintf(&sb, "#define DIM %d\n", assembly.Dimension())
	return sb.String()
}

// Source returns the OKL program assembling one potential job family. One
// thread owns one evaluation point and loops over all contributions, so every
// thread writes only its own output rows.
func Source(kernel kernels.KernelType, assembly kernels.AssemblyType, single bool) string {
	return preamble(kernel, assembly, single) + kernelBody
}

const kernelBody = `
@kernel void assemblePotential(const int npts,
                               const int ncontrib,
                               const int ndofs,
                               const REAL kr,
                               const REAL ki,
                               @restrict const REAL *points,
                               @restrict const REAL *sources,
                               @restrict const REAL *normals,
                               @restrict const REAL *basis,
                               @restrict const REAL *divs,
                               @restrict const REAL *weights,
                               @restrict const int *dofs,
                               REAL *outRe,
                               REAL *outIm) {
  for (int p = 0; p < npts; ++p; @tile(BLOCK, @outer, @inner)) {
    const REAL x0 = points[3*p], x1 = points[3*p+1], x2 = points[3*p+2];
    for (int m = 0; m < ncontrib; ++m) {
      const REAL y0 = sources[3*m], y1 = sources[3*m+1], y2 = sources[3*m+2];
      const REAL f0 = basis[3*m], f1 = basis[3*m+1], f2 = basis[3*m+2];
      const REAL w = weights[m];
      const int dof = dofs[m];
      REAL vRe[DIM], vIm[DIM];

#if ASSEMBLY == MAXWELL_ELECTRIC_FAR_FIELD || ASSEMBLY == MAXWELL_MAGNETIC_FAR_FIELD
      // e^{-ik d.y}/(4 pi)
      const REAL dy = x0*y0 + x1*y1 + x2*y2;
      const REAL amp = exp(ki*dy)*INV4PI*w;
      const REAL gRe = amp*cos(kr*dy), gIm = -amp*sin(kr*dy);
#if ASSEMBLY == MAXWELL_ELECTRIC_FAR_FIELD
      const REAL div = divs[m];
      const REAL f[3] = {f0, f1, f2}, x[3] = {x0, x1, x2};
      for (int c = 0; c < 3; ++c) {
        const REAL aRe = -ki*f[c] - x[c]*div, aIm = kr*f[c];
        vRe[c] = gRe*aRe - gIm*aIm;
        vIm[c] = gRe*aIm + gIm*aRe;
      }
#else
      const REAL cr[3] = {x1*f2 - x2*f1, x2*f0 - x0*f2, x0*f1 - x1*f0};
      for (int c = 0; c < 3; ++c) {
        const REAL aRe = -ki*cr[c], aIm = kr*cr[c];
        vRe[c] = gRe*aRe - gIm*aIm;
        vIm[c] = gRe*aIm + gIm*aRe;
      }
#endif
#else
      const REAL d0 = x0 - y0, d1 = x1 - y1, d2 = x2 - y2;
      const REAL r = sqrt(d0*d0 + d1*d1 + d2*d2);
      if (r < 1e-14) continue;
#if KERNEL == LAPLACE_SINGLE_LAYER
      vRe[0] = INV4PI/r*w*f0;
      vIm[0] = 0;
#elif KERNEL == LAPLACE_DOUBLE_LAYER
      const REAL dn = (d0*normals[3*m] + d1*normals[3*m+1] + d2*normals[3*m+2])/(r*r);
      vRe[0] = INV4PI/r*dn*w*f0;
      vIm[0] = 0;
#else
      // G = e^{ikr}/(4 pi r), dG/dr = G (ik - 1/r)
      const REAL amp = exp(-ki*r)*INV4PI/r;
      const REAL gRe = amp*cos(kr*r), gIm = amp*sin(kr*r);
      const REAL sRe = -ki - 1/r, sIm = kr;
      const REAL dRe = gRe*sRe - gIm*sIm, dIm = gRe*sIm + gIm*sRe;
#if KERNEL == HELMHOLTZ_DOUBLE_LAYER
      const REAL dn = -(d0*normals[3*m] + d1*normals[3*m+1] + d2*normals[3*m+2])/r*w*f0;
      vRe[0] = dRe*dn;
      vIm[0] = dIm*dn;
#elif ASSEMBLY == DEFAULT_SCALAR
      vRe[0] = gRe*w*f0;
      vIm[0] = gIm*w*f0;
#elif ASSEMBLY == MAXWELL_ELECTRIC_FIELD
      // ik G f - (dG/dr / r) d div / ik
      const REAL div = divs[m];
      const REAL f[3] = {f0, f1, f2}, d[3] = {d0, d1, d2};
      const REAL ikRe = -ki, ikIm = kr;
      const REAL den = ikRe*ikRe + ikIm*ikIm;
      // (dG/dr)/(r ik)
      const REAL qRe = (dRe*ikRe + dIm*ikIm)/(den*r), qIm = (dIm*ikRe - dRe*ikIm)/(den*r);
      const REAL aRe = ikRe*gRe - ikIm*gIm, aIm = ikRe*gIm + ikIm*gRe;
      for (int c = 0; c < 3; ++c) {
        vRe[c] = w*(aRe*f[c] - qRe*d[c]*div);
        vIm[c] = w*(aIm*f[c] - qIm*d[c]*div);
      }
#else
      const REAL cr[3] = {d1*f2 - d2*f1, d2*f0 - d0*f2, d0*f1 - d1*f0};
      for (int c = 0; c < 3; ++c) {
        vRe[c] = dRe/r*w*cr[c];
        vIm[c] = dIm/r*w*cr[c];
      }
#endif
#endif
#endif
      for (int c = 0; c < DIM; ++c) {
        const int at = (p*DIM + c)*ndofs + dof;
        outRe[at] += vRe[c];
        outIm[at] += vIm[c];
      }
    }
  }
}
`
