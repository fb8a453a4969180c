package model

// SGD — стохастический градиентный спуск с моментом.
type SGD struct {
	lr       float64
	momentum float64
	velocity map[string][]float64
}

func NewSGD(lr, momentum float64) *SGD {
	return &SGD{
		lr:       lr,
		momentum: momentum,
		velocity: make(map[string][]float64),
	}
}

// Step применяет накопленные градиенты, усреднённые по batchSize сэмплам.
func (o *SGD) Step(params []*Param, batchSize int) {
	if batchSize <= 0 {
		batchSize = 1
	}
	scale := 1.0 / float64(batchSize)

	for _, p := range params {
		vel, ok := o.velocity[p.Name]
		if !ok {
			vel = make([]float64, len(p.Data))
			o.velocity[p.Name] = vel
		}

		for i := range p.Data {
			vel[i] = o.momentum*vel[i] - o.lr*p.Grad[i]*scale
			p.Data[i] += vel[i]
		}
	}
}
