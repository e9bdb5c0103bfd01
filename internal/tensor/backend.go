package tensor

import "github.com/pkg/errors"

// ErrUnsupported is the cause of every panic or error raised when a backend
// has no kernel for an operation, dtype or attribute combination.
var ErrUnsupported = errors.New("unsupported operation")

// AdamArgs are the inputs of a single fused Adam update. Param, Grad,
// Moment1 and Moment2 share one shape and dtype. Beta1Pow and Beta2Pow are
// the one-element power accumulators; the other hyper-parameters are
// already resolved to scalars by the operator layer.
type AdamArgs struct {
	Param    *RawTensor
	Grad     *RawTensor
	Moment1  *RawTensor
	Moment2  *RawTensor
	Beta1Pow *RawTensor
	Beta2Pow *RawTensor

	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	// SkipUpdate makes the step an identity: every result is a copy of
	// its input, accumulators included.
	SkipUpdate bool
	// UseGlobalBetaPow leaves the accumulators to the caller; the pow
	// results are empty.
	UseGlobalBetaPow bool
}

// AdamResult holds the updated parameter, moment estimates and power
// accumulators (each multiplied by its beta).
type AdamResult struct {
	Param    *RawTensor
	Moment1  *RawTensor
	Moment2  *RawTensor
	Beta1Pow *RawTensor
	Beta2Pow *RawTensor
}

// Backend defines the kernels a compute device must provide to have its
// operators checked.
//
// Kernels panic on invalid input (shape, dtype, axis); the panic value is an
// error, wrapping ErrUnsupported when the device lacks the kernel. The
// operator layer turns those panics into returned errors.
//
// Implementations:
//   - backend/cpu: Pure Go reference device, also used to emulate custom places
//   - backend/webgpu: GPU compute via WebGPU
type Backend interface {
	// Activation functions. The gradient kernels take the forward output.
	Softmax(x *RawTensor, dim int) *RawTensor
	SoftmaxGrad(out, outGrad *RawTensor, dim int) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	ReLUGrad(out, outGrad *RawTensor) *RawTensor

	// Adam performs one fused Adam step.
	Adam(args AdamArgs) AdamResult

	// WhereIndex returns int64 [numTrue, rank] coordinates of non-zero elements.
	WhereIndex(condition *RawTensor) *RawTensor

	// Cast converts to a different data type.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Name returns the backend name (e.g., "CPU", "WebGPU").
	Name() string
}

// Releaser is implemented by backends holding device resources.
type Releaser interface {
	Release()
}
