package packets

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/playlist"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by the request
// packets to gin's validator. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("slide_duration", func(fl validator.FieldLevel) bool {
			return playlist.IsAllowedDuration(int(fl.Field().Int()))
		})
		_ = v.RegisterValidation("device_type", func(fl validator.FieldLevel) bool {
			return model.DeviceType(fl.Field().String()).IsValid()
		})
	})
}
