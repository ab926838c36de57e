package dsp

import "gonum.org/v1/gonum/floats"

// FiltFilt applies coeffs forward then backward over x, cancelling the
// phase distortion a single IIR pass would introduce, using odd-reflection
// padding at both ends (matching the common scipy.signal.filtfilt default)
// so the transient settles before the signal of interest begins.
func FiltFilt(c Coefficients, x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	padLen := 3 * maxInt(len(c.A), len(c.B))
	if padLen >= len(x) {
		padLen = len(x) - 1
	}
	if padLen < 0 {
		padLen = 0
	}

	padded := oddExtend(x, padLen)
	forward := lfilter(c, padded)
	floats.Reverse(forward)
	backward := lfilter(c, forward)
	floats.Reverse(backward)

	return backward[padLen : len(backward)-padLen]
}

// lfilter applies the direct-form-I difference equation
// a[0]*y[n] = sum(b[i]*x[n-i]) - sum(a[j]*y[n-j], j>=1); a/b here always
// carry a[0] == 1 (zpkToDigital normalizes it).
func lfilter(c Coefficients, x []float64) []float64 {
	y := make([]float64, len(x))
	// Samples before the start are taken as x[0] held constant, with the
	// output already settled at the filter's DC gain times x[0].
	var sumB, sumA float64
	for _, bi := range c.B {
		sumB += bi
	}
	for _, aj := range c.A {
		sumA += aj
	}
	x0, y0 := x[0], x[0]*sumB/sumA
	for n := range x {
		var acc float64
		for i, bi := range c.B {
			if n-i >= 0 {
				acc += bi * x[n-i]
			} else {
				acc += bi * x0
			}
		}
		for j := 1; j < len(c.A); j++ {
			if n-j >= 0 {
				acc -= c.A[j] * y[n-j]
			} else {
				acc -= c.A[j] * y0
			}
		}
		y[n] = acc
	}
	return y
}

// oddExtend prepends/appends n odd-reflected samples around x, so the
// extended signal is continuous in value and slope at both seams.
func oddExtend(x []float64, n int) []float64 {
	if n == 0 {
		return append([]float64(nil), x...)
	}
	left := make([]float64, n)
	for i := 0; i < n; i++ {
		left[i] = 2*x[0] - x[n-i]
	}
	right := make([]float64, n)
	for i := 0; i < n; i++ {
		right[i] = 2*x[len(x)-1] - x[len(x)-2-i]
	}
	out := make([]float64, 0, len(x)+2*n)
	out = append(out, left...)
	out = append(out, x...)
	out = append(out, right...)
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
