package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// layer transforms a sequence of vectors. Recurrent layers that do not
// return sequences emit a single-element sequence holding their final state.
// Dense layers are applied to every element, as Keras does for 3D inputs.
type layer interface {
	kind() string
	units() int
	recurrent() bool
	returnsSequences() bool
	forward(seq []*mat.VecDense) []*mat.VecDense
}

// LayerSpec is the JSON layout of one exported layer. Weight layouts follow
// Keras: kernel is (input_dim, k*units), recurrent_kernel is (units, k*units)
// where k is 1 for SimpleRNN and Dense, 3 for GRU and 4 for LSTM.
type LayerSpec struct {
	Type                string      `json:"type"`
	Units               int         `json:"units"`
	Activation          string      `json:"activation,omitempty"`
	RecurrentActivation string      `json:"recurrent_activation,omitempty"`
	ReturnSequences     bool        `json:"return_sequences,omitempty"`
	ResetAfter          *bool       `json:"reset_after,omitempty"`
	Kernel              [][]float64 `json:"kernel"`
	RecurrentKernel     [][]float64 `json:"recurrent_kernel,omitempty"`
	Bias                []float64   `json:"bias,omitempty"`
	RecurrentBias       []float64   `json:"recurrent_bias,omitempty"`
}

func buildLayer(spec LayerSpec, inDim int) (layer, error) {
	if spec.Units <= 0 {
		return nil, fmt.Errorf("%s: units must be > 0", spec.Type)
	}

	switch spec.Type {
	case "dense":
		return newDense(spec, inDim)
	case "simple_rnn":
		return newSimpleRNN(spec, inDim)
	case "lstm":
		return newLSTM(spec, inDim)
	case "gru":
		return newGRU(spec, inDim)
	default:
		return nil, fmt.Errorf("unsupported layer type %q (must be simple_rnn, lstm, gru, or dense)", spec.Type)
	}
}

func matrix(name string, w [][]float64, rows, cols int) (*mat.Dense, error) {
	if len(w) != rows {
		return nil, fmt.Errorf("%s: expected %d rows, got %d", name, rows, len(w))
	}
	data := make([]float64, 0, rows*cols)
	for i, row := range w {
		if len(row) != cols {
			return nil, fmt.Errorf("%s: row %d has %d columns, want %d", name, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(rows, cols, data), nil
}

func vector(name string, b []float64, n int) (*mat.VecDense, error) {
	if b == nil {
		return mat.NewVecDense(n, nil), nil
	}
	if len(b) != n {
		return nil, fmt.Errorf("%s: expected %d values, got %d", name, n, len(b))
	}
	data := make([]float64, n)
	copy(data, b)
	return mat.NewVecDense(n, data), nil
}

// affine returns x·w + b.
func affine(x *mat.VecDense, w *mat.Dense, b *mat.VecDense) *mat.VecDense {
	_, n := w.Dims()
	out := mat.NewVecDense(n, nil)
	out.MulVec(w.T(), x)
	if b != nil {
		out.AddVec(out, b)
	}
	return out
}

type dense struct {
	n      int
	kernel *mat.Dense
	bias   *mat.VecDense
	act    activation
}

func newDense(spec LayerSpec, inDim int) (*dense, error) {
	kernel, err := matrix("dense kernel", spec.Kernel, inDim, spec.Units)
	if err != nil {
		return nil, err
	}
	bias, err := vector("dense bias", spec.Bias, spec.Units)
	if err != nil {
		return nil, err
	}
	act, err := lookupActivation(spec.Activation, "linear")
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	return &dense{n: spec.Units, kernel: kernel, bias: bias, act: act}, nil
}

func (l *dense) kind() string           { return "dense" }
func (l *dense) units() int             { return l.n }
func (l *dense) recurrent() bool        { return false }
func (l *dense) returnsSequences() bool { return true }

func (l *dense) forward(seq []*mat.VecDense) []*mat.VecDense {
	out := make([]*mat.VecDense, len(seq))
	for t, x := range seq {
		y := affine(x, l.kernel, l.bias)
		for i := 0; i < l.n; i++ {
			y.SetVec(i, l.act(y.AtVec(i)))
		}
		out[t] = y
	}
	return out
}

// recurrentBase holds the weights shared by every recurrent cell.
type recurrentBase struct {
	n         int
	kernel    *mat.Dense
	recKernel *mat.Dense
	bias      *mat.VecDense
	act       activation
	recAct    activation
	retSeq    bool
}

func newRecurrentBase(name string, spec LayerSpec, inDim, gates int) (recurrentBase, error) {
	width := gates * spec.Units

	kernel, err := matrix(name+" kernel", spec.Kernel, inDim, width)
	if err != nil {
		return recurrentBase{}, err
	}
	recKernel, err := matrix(name+" recurrent_kernel", spec.RecurrentKernel, spec.Units, width)
	if err != nil {
		return recurrentBase{}, err
	}
	bias, err := vector(name+" bias", spec.Bias, width)
	if err != nil {
		return recurrentBase{}, err
	}
	act, err := lookupActivation(spec.Activation, "tanh")
	if err != nil {
		return recurrentBase{}, fmt.Errorf("%s: %w", name, err)
	}
	recAct, err := lookupActivation(spec.RecurrentActivation, "sigmoid")
	if err != nil {
		return recurrentBase{}, fmt.Errorf("%s: %w", name, err)
	}

	return recurrentBase{
		n:         spec.Units,
		kernel:    kernel,
		recKernel: recKernel,
		bias:      bias,
		act:       act,
		recAct:    recAct,
		retSeq:    spec.ReturnSequences,
	}, nil
}

func (b *recurrentBase) units() int             { return b.n }
func (b *recurrentBase) recurrent() bool        { return true }
func (b *recurrentBase) returnsSequences() bool { return b.retSeq }

// run drives step over seq and collects outputs according to retSeq.
func (b *recurrentBase) run(seq []*mat.VecDense, step func(x, h *mat.VecDense) *mat.VecDense) []*mat.VecDense {
	h := mat.NewVecDense(b.n, nil)
	var out []*mat.VecDense
	if b.retSeq {
		out = make([]*mat.VecDense, 0, len(seq))
	}
	for _, x := range seq {
		h = step(x, h)
		if b.retSeq {
			out = append(out, h)
		}
	}
	if !b.retSeq {
		out = []*mat.VecDense{h}
	}
	return out
}

type simpleRNN struct {
	recurrentBase
}

func newSimpleRNN(spec LayerSpec, inDim int) (*simpleRNN, error) {
	base, err := newRecurrentBase("simple_rnn", spec, inDim, 1)
	if err != nil {
		return nil, err
	}
	return &simpleRNN{base}, nil
}

func (l *simpleRNN) kind() string { return "simple_rnn" }

func (l *simpleRNN) forward(seq []*mat.VecDense) []*mat.VecDense {
	return l.run(seq, func(x, h *mat.VecDense) *mat.VecDense {
		z := affine(x, l.kernel, l.bias)
		z.AddVec(z, affine(h, l.recKernel, nil))
		for i := 0; i < l.n; i++ {
			z.SetVec(i, l.act(z.AtVec(i)))
		}
		return z
	})
}

// lstm keeps Keras gate order: input, forget, cell, output.
type lstm struct {
	recurrentBase
}

func newLSTM(spec LayerSpec, inDim int) (*lstm, error) {
	base, err := newRecurrentBase("lstm", spec, inDim, 4)
	if err != nil {
		return nil, err
	}
	return &lstm{base}, nil
}

func (l *lstm) kind() string { return "lstm" }

func (l *lstm) forward(seq []*mat.VecDense) []*mat.VecDense {
	n := l.n
	c := make([]float64, n)
	return l.run(seq, func(x, h *mat.VecDense) *mat.VecDense {
		z := affine(x, l.kernel, l.bias)
		z.AddVec(z, affine(h, l.recKernel, nil))

		next := mat.NewVecDense(n, nil)
		for j := 0; j < n; j++ {
			i := l.recAct(z.AtVec(j))
			f := l.recAct(z.AtVec(n + j))
			g := l.act(z.AtVec(2*n + j))
			o := l.recAct(z.AtVec(3*n + j))
			c[j] = f*c[j] + i*g
			next.SetVec(j, o*l.act(c[j]))
		}
		return next
	})
}

// gru keeps Keras gate order: update, reset, candidate.
type gru struct {
	recurrentBase
	resetAfter bool
	recBias    *mat.VecDense
}

func newGRU(spec LayerSpec, inDim int) (*gru, error) {
	base, err := newRecurrentBase("gru", spec, inDim, 3)
	if err != nil {
		return nil, err
	}

	resetAfter := true
	if spec.ResetAfter != nil {
		resetAfter = *spec.ResetAfter
	}

	l := &gru{recurrentBase: base, resetAfter: resetAfter}
	if resetAfter {
		l.recBias, err = vector("gru recurrent_bias", spec.RecurrentBias, 3*spec.Units)
		if err != nil {
			return nil, err
		}
	} else if spec.RecurrentBias != nil {
		return nil, fmt.Errorf("gru: recurrent_bias requires reset_after")
	}
	return l, nil
}

func (l *gru) kind() string { return "gru" }

func (l *gru) forward(seq []*mat.VecDense) []*mat.VecDense {
	n := l.n
	return l.run(seq, func(x, h *mat.VecDense) *mat.VecDense {
		mx := affine(x, l.kernel, l.bias)
		next := mat.NewVecDense(n, nil)

		if l.resetAfter {
			mh := affine(h, l.recKernel, l.recBias)
			for j := 0; j < n; j++ {
				z := l.recAct(mx.AtVec(j) + mh.AtVec(j))
				r := l.recAct(mx.AtVec(n+j) + mh.AtVec(n+j))
				cand := l.act(mx.AtVec(2*n+j) + r*mh.AtVec(2*n+j))
				next.SetVec(j, z*h.AtVec(j)+(1-z)*cand)
			}
			return next
		}

		uz := l.recKernel.Slice(0, n, 0, n)
		ur := l.recKernel.Slice(0, n, n, 2*n)
		uh := l.recKernel.Slice(0, n, 2*n, 3*n)

		hz := mat.NewVecDense(n, nil)
		hz.MulVec(uz.T(), h)
		hr := mat.NewVecDense(n, nil)
		hr.MulVec(ur.T(), h)

		z := make([]float64, n)
		rh := mat.NewVecDense(n, nil)
		for j := 0; j < n; j++ {
			z[j] = l.recAct(mx.AtVec(j) + hz.AtVec(j))
			r := l.recAct(mx.AtVec(n+j) + hr.AtVec(j))
			rh.SetVec(j, r*h.AtVec(j))
		}

		hh := mat.NewVecDense(n, nil)
		hh.MulVec(uh.T(), rh)
		for j := 0; j < n; j++ {
			cand := l.act(mx.AtVec(2*n+j) + hh.AtVec(j))
			next.SetVec(j, z[j]*h.AtVec(j)+(1-z[j])*cand)
		}
		return next
	})
}
