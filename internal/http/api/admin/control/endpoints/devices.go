package endpoints

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/mqtt"
)

// DeviceModule relays operator commands to players over MQTT.
func DeviceModule(publisher mqtt.Publisher) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/devices/:device/commands", func(ctx *gin.Context, user *model.User) (any, *api.APIError) {
			device := strings.TrimSpace(ctx.Param("device"))
			if device == "" || strings.ContainsAny(device, "/+#") {
				return nil, api.BadRequest("invalid device id")
			}
			var req packets.DeviceCommandRequest
			if err := ctx.ShouldBindJSON(&req); err != nil {
				return nil, api.BadRequest(err.Error())
			}
			cmd, err := mqtt.ParseCommand(req.Command)
			if err != nil {
				return nil, api.BadRequest(err.Error())
			}
			if err := publisher.SendCommand(device, cmd); err != nil {
				log.Error().Err(err).Str("device", device).Str("command", string(cmd)).
					Msg("[devices] could not relay command")
				return nil, api.Internal("could not send command")
			}
			log.Info().Str("device", device).Str("command", string(cmd)).Int("user_id", user.ID).
				Msg("[devices] command sent")
			return api.Accepted(gin.H{"device": device, "command": cmd}), nil
		})
	})
}
