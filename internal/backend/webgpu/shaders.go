//go:build windows

package webgpu

const workgroupSize = 256

// reluShader applies ReLU activation: result = max(0, x).
const reluShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = max(0.0, input[idx]);
    }
}
`

// reluGradShader passes grad where the forward output is positive.
const reluGradShader = `
@group(0) @binding(0) var<storage, read> output: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = select(0.0, grad[idx], output[idx] > 0.0);
    }
}
`

// softmaxShader applies softmax along one axis of a tensor viewed as
// [outer, dim_size, inner]. Each invocation owns one (outer, inner) slice.
// Uses max-shift trick for numerical stability.
const softmaxShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    dim_size: u32,
    inner: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }

    let base = (row / params.inner) * params.dim_size * params.inner + (row % params.inner);
    let stride = params.inner;

    var max_val: f32 = input[base];
    for (var i: u32 = 1u; i < params.dim_size; i = i + 1u) {
        max_val = max(max_val, input[base + i * stride]);
    }

    var sum: f32 = 0.0;
    for (var i: u32 = 0u; i < params.dim_size; i = i + 1u) {
        let e = exp(input[base + i * stride] - max_val);
        result[base + i * stride] = e;
        sum = sum + e;
    }

    for (var i: u32 = 0u; i < params.dim_size; i = i + 1u) {
        result[base + i * stride] = result[base + i * stride] / sum;
    }
}
`

// softmaxGradShader computes d_input = s * (grad - sum(s * grad)) along one
// axis, with the same [outer, dim_size, inner] view as softmaxShader.
const softmaxGradShader = `
@group(0) @binding(0) var<storage, read> output: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    dim_size: u32,
    inner: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }

    let base = (row / params.inner) * params.dim_size * params.inner + (row % params.inner);
    let stride = params.inner;

    var dot_product: f32 = 0.0;
    for (var i: u32 = 0u; i < params.dim_size; i = i + 1u) {
        let idx = base + i * stride;
        dot_product = dot_product + output[idx] * grad[idx];
    }

    for (var i: u32 = 0u; i < params.dim_size; i = i + 1u) {
        let idx = base + i * stride;
        result[idx] = output[idx] * (grad[idx] - dot_product);
    }
}
`

// adamShader performs one Adam step. lr_t already carries the bias correction.
const adamShader = `
@group(0) @binding(0) var<storage, read> param: array<f32>;
@group(0) @binding(1) var<storage, read> grad: array<f32>;
@group(0) @binding(2) var<storage, read> moment1: array<f32>;
@group(0) @binding(3) var<storage, read> moment2: array<f32>;
@group(0) @binding(4) var<storage, read_write> param_out: array<f32>;
@group(0) @binding(5) var<storage, read_write> moment1_out: array<f32>;
@group(0) @binding(6) var<storage, read_write> moment2_out: array<f32>;

struct Params {
    size: u32,
    beta1: f32,
    beta2: f32,
    epsilon: f32,
    lr_t: f32,
}
@group(0) @binding(7) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let g = grad[idx];
    let m1 = params.beta1 * moment1[idx] + (1.0 - params.beta1) * g;
    let m2 = params.beta2 * moment2[idx] + (1.0 - params.beta2) * g * g;
    moment1_out[idx] = m1;
    moment2_out[idx] = m2;
    param_out[idx] = param[idx] - params.lr_t * (m1 / (sqrt(m2) + params.epsilon));
}
`

// scaleShader multiplies every element by a constant factor.
const scaleShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    factor: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = input[idx] * params.factor;
    }
}
`
