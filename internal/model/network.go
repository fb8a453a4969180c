package model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param — один тензор параметров сети с накопленным градиентом.
type Param struct {
	Name string
	Data []float64
	Grad []float64
}

// ConvNet — небольшая свёрточная сеть для классификации изображений:
// conv(5x5) -> ReLU -> maxpool(2x2) -> fc -> ReLU (эмбеддинг) -> fc (логиты).
// Forward возвращает и логиты, и промежуточный эмбеддинг.
type ConvNet struct {
	inH, inW     int
	kernel       int
	channels     int
	embeddingDim int
	numClasses   int

	convOutH, convOutW int
	poolH, poolW       int
	flatDim            int

	convW *Param // channels x kernel*kernel
	convB *Param
	fc1W  *Param // embeddingDim x flatDim
	fc1B  *Param
	fc2W  *Param // numClasses x embeddingDim
	fc2B  *Param
}

// forwardCache хранит промежуточные активации одного сэмпла для обратного прохода.
type forwardCache struct {
	cols      *mat.Dense // kernel*kernel x convOutH*convOutW
	convOut   []float64  // channels x convOutH*convOutW, после ReLU
	poolArg   []int      // индекс argmax в convOut для каждой ячейки пула
	flat      []float64  // flatDim
	embedding []float64  // embeddingDim, после ReLU
	logits    []float64  // numClasses
}

func NewConvNet(inH, inW, channels, embeddingDim, numClasses int, seed int64) (*ConvNet, error) {
	const kernel = 5

	if inH < kernel || inW < kernel {
		return nil, fmt.Errorf("input %dx%d is smaller than kernel %dx%d", inH, inW, kernel, kernel)
	}

	convOutH := inH - kernel + 1
	convOutW := inW - kernel + 1
	if convOutH%2 != 0 || convOutW%2 != 0 {
		return nil, fmt.Errorf("conv output %dx%d is not poolable by 2", convOutH, convOutW)
	}

	poolH := convOutH / 2
	poolW := convOutW / 2
	flatDim := channels * poolH * poolW

	n := &ConvNet{
		inH:          inH,
		inW:          inW,
		kernel:       kernel,
		channels:     channels,
		embeddingDim: embeddingDim,
		numClasses:   numClasses,
		convOutH:     convOutH,
		convOutW:     convOutW,
		poolH:        poolH,
		poolW:        poolW,
		flatDim:      flatDim,
	}

	rng := rand.New(rand.NewSource(seed))
	n.convW = newParam("conv.weight", channels*kernel*kernel, rng, kernel*kernel)
	n.convB = newParam("conv.bias", channels, nil, 0)
	n.fc1W = newParam("fc1.weight", embeddingDim*flatDim, rng, flatDim)
	n.fc1B = newParam("fc1.bias", embeddingDim, nil, 0)
	n.fc2W = newParam("fc2.weight", numClasses*embeddingDim, rng, embeddingDim)
	n.fc2B = newParam("fc2.bias", numClasses, nil, 0)

	return n, nil
}

// newParam инициализирует веса по He-схеме от указанного fan-in; nil rng даёт нули.
func newParam(name string, size int, rng *rand.Rand, fanIn int) *Param {
	data := make([]float64, size)
	if rng != nil {
		scale := math.Sqrt(2.0 / float64(fanIn))
		for i := range data {
			data[i] = rng.NormFloat64() * scale
		}
	}

	return &Param{
		Name: name,
		Data: data,
		Grad: make([]float64, size),
	}
}

func (n *ConvNet) EmbeddingDim() int { return n.embeddingDim }
func (n *ConvNet) NumClasses() int   { return n.numClasses }

// Params возвращает все параметры сети в фиксированном порядке.
func (n *ConvNet) Params() []*Param {
	return []*Param{n.convW, n.convB, n.fc1W, n.fc1B, n.fc2W, n.fc2B}
}

// ZeroGrad обнуляет накопленные градиенты.
func (n *ConvNet) ZeroGrad() {
	for _, p := range n.Params() {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

// Forward выполняет прямой проход для одного сэмпла.
func (n *ConvNet) Forward(pixels []float32) (*forwardCache, error) {
	if len(pixels) != n.inH*n.inW {
		return nil, fmt.Errorf("input has %d pixels, want %d", len(pixels), n.inH*n.inW)
	}

	cache := &forwardCache{}

	// im2col: каждый столбец — патч kernel*kernel под одним выходным пикселем.
	patch := n.kernel * n.kernel
	outPixels := n.convOutH * n.convOutW
	cols := mat.NewDense(patch, outPixels, nil)
	for oy := 0; oy < n.convOutH; oy++ {
		for ox := 0; ox < n.convOutW; ox++ {
			p := oy*n.convOutW + ox
			for ky := 0; ky < n.kernel; ky++ {
				for kx := 0; kx < n.kernel; kx++ {
					cols.Set(ky*n.kernel+kx, p, float64(pixels[(oy+ky)*n.inW+(ox+kx)]))
				}
			}
		}
	}
	cache.cols = cols

	// Свёртка как умножение матриц: (channels x patch) * (patch x outPixels).
	convW := mat.NewDense(n.channels, patch, n.convW.Data)
	var convOut mat.Dense
	convOut.Mul(convW, cols)

	cache.convOut = make([]float64, n.channels*outPixels)
	for c := 0; c < n.channels; c++ {
		for p := 0; p < outPixels; p++ {
			v := convOut.At(c, p) + n.convB.Data[c]
			if v < 0 {
				v = 0 // ReLU
			}
			cache.convOut[c*outPixels+p] = v
		}
	}

	// MaxPool 2x2 с запоминанием argmax для обратного прохода.
	poolPixels := n.poolH * n.poolW
	cache.flat = make([]float64, n.flatDim)
	cache.poolArg = make([]int, n.flatDim)
	for c := 0; c < n.channels; c++ {
		channel := cache.convOut[c*outPixels : (c+1)*outPixels]
		for py := 0; py < n.poolH; py++ {
			for px := 0; px < n.poolW; px++ {
				best := -1
				bestVal := math.Inf(-1)
				for dy := 0; dy < 2; dy++ {
					for dx := 0; dx < 2; dx++ {
						idx := (2*py+dy)*n.convOutW + (2*px + dx)
						if channel[idx] > bestVal {
							bestVal = channel[idx]
							best = idx
						}
					}
				}
				q := c*poolPixels + py*n.poolW + px
				cache.flat[q] = bestVal
				cache.poolArg[q] = best
			}
		}
	}

	// fc1 + ReLU: активации этого слоя и есть эмбеддинг сэмпла.
	fc1W := mat.NewDense(n.embeddingDim, n.flatDim, n.fc1W.Data)
	var hidden mat.VecDense
	hidden.MulVec(fc1W, mat.NewVecDense(n.flatDim, cache.flat))

	cache.embedding = make([]float64, n.embeddingDim)
	for i := 0; i < n.embeddingDim; i++ {
		v := hidden.AtVec(i) + n.fc1B.Data[i]
		if v < 0 {
			v = 0
		}
		cache.embedding[i] = v
	}

	// fc2: логиты классов.
	fc2W := mat.NewDense(n.numClasses, n.embeddingDim, n.fc2W.Data)
	var out mat.VecDense
	out.MulVec(fc2W, mat.NewVecDense(n.embeddingDim, cache.embedding))

	cache.logits = make([]float64, n.numClasses)
	for i := 0; i < n.numClasses; i++ {
		cache.logits[i] = out.AtVec(i) + n.fc2B.Data[i]
	}

	return cache, nil
}

// Backward накапливает градиенты параметров по градиенту логитов одного сэмпла.
func (n *ConvNet) Backward(cache *forwardCache, dLogits []float64) {
	outPixels := n.convOutH * n.convOutW
	poolPixels := n.poolH * n.poolW

	// fc2
	dEmbedding := make([]float64, n.embeddingDim)
	for i := 0; i < n.numClasses; i++ {
		n.fc2B.Grad[i] += dLogits[i]
		for j := 0; j < n.embeddingDim; j++ {
			n.fc2W.Grad[i*n.embeddingDim+j] += dLogits[i] * cache.embedding[j]
			dEmbedding[j] += dLogits[i] * n.fc2W.Data[i*n.embeddingDim+j]
		}
	}

	// ReLU эмбеддинга
	for j := range dEmbedding {
		if cache.embedding[j] <= 0 {
			dEmbedding[j] = 0
		}
	}

	// fc1
	dFlat := make([]float64, n.flatDim)
	for i := 0; i < n.embeddingDim; i++ {
		n.fc1B.Grad[i] += dEmbedding[i]
		if dEmbedding[i] == 0 {
			continue
		}
		for j := 0; j < n.flatDim; j++ {
			n.fc1W.Grad[i*n.flatDim+j] += dEmbedding[i] * cache.flat[j]
			dFlat[j] += dEmbedding[i] * n.fc1W.Data[i*n.flatDim+j]
		}
	}

	// Unpool: градиент уходит только в позицию argmax.
	dConvOut := make([]float64, n.channels*outPixels)
	for c := 0; c < n.channels; c++ {
		for q := 0; q < poolPixels; q++ {
			flatIdx := c*poolPixels + q
			dConvOut[c*outPixels+cache.poolArg[flatIdx]] += dFlat[flatIdx]
		}
	}

	// ReLU свёртки
	for i, v := range cache.convOut {
		if v <= 0 {
			dConvOut[i] = 0
		}
	}

	// Градиенты свёртки: dW = dOut * colsᵀ.
	dOut := mat.NewDense(n.channels, outPixels, dConvOut)
	var dConvW mat.Dense
	dConvW.Mul(dOut, cache.cols.T())

	patch := n.kernel * n.kernel
	for c := 0; c < n.channels; c++ {
		for k := 0; k < patch; k++ {
			n.convW.Grad[c*patch+k] += dConvW.At(c, k)
		}
		for p := 0; p < outPixels; p++ {
			n.convB.Grad[c] += dConvOut[c*outPixels+p]
		}
	}
}

// Infer выполняет прямой проход в режиме вывода и возвращает
// эмбеддинг сэмпла и предсказанный класс.
func (n *ConvNet) Infer(pixels []float32) ([]float32, int, error) {
	cache, err := n.Forward(pixels)
	if err != nil {
		return nil, 0, err
	}

	embedding := make([]float32, n.embeddingDim)
	for i, v := range cache.embedding {
		embedding[i] = float32(v)
	}

	predicted := 0
	for i, v := range cache.logits {
		if v > cache.logits[predicted] {
			predicted = i
		}
	}

	return embedding, predicted, nil
}
