package handlers

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/Josemi-inf/n8n-lead-sync-sub000/internal/models"
)

var validate = newValidator()

// telefonoRegexp acepta dígitos, espacios, paréntesis, guiones y prefijo +.
// Es deliberadamente permisivo: la normalización E.164 la hace n8n.
var telefonoRegexp = regexp.MustCompile(`^\+?[0-9 ()\-\.]{6,20}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterValidation("telefono", func(fl validator.FieldLevel) bool {
		return telefonoRegexp.MatchString(fl.Field().String())
	})
	v.RegisterValidation("estado_lead", func(fl validator.FieldLevel) bool {
		return models.EstadoLeadValido(fl.Field().String())
	})

	return v
}

// CreateLeadRequest son los datos para dar de alta un lead a mano
// (el alta normal la hace n8n desde los formularios de campaña)
type CreateLeadRequest struct {
	Nombre       string  `json:"nombre" validate:"required,max=100"`
	Apellidos    string  `json:"apellidos" validate:"required,max=100"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Telefono     *string `json:"telefono" validate:"omitempty,telefono"`
	TelefonoE164 *string `json:"telefono_e164" validate:"omitempty,telefono"`
	Estado       *string `json:"estado_actual" validate:"omitempty,estado_lead"`
	Source       *string `json:"source" validate:"omitempty,max=100"`
	Campana      *string `json:"campana" validate:"omitempty,max=100"`
	Ciudad       *string `json:"ciudad" validate:"omitempty,max=100"`
	CodigoPostal *string `json:"codigo_postal" validate:"omitempty,max=10"`
	Provincia    *string `json:"provincia" validate:"omitempty,max=100"`
}

// validationMessages traduce los errores del validador a mensajes por campo
func validationMessages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	var msgs []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" es obligatorio")
		case "max":
			msgs = append(msgs, fe.Field()+" supera la longitud máxima de "+fe.Param())
		case "email":
			msgs = append(msgs, fe.Field()+" no es un email válido")
		case "telefono":
			msgs = append(msgs, fe.Field()+" no es un teléfono válido")
		case "estado_lead":
			msgs = append(msgs, fe.Field()+" no es un estado de lead válido")
		default:
			msgs = append(msgs, fe.Field()+" no es válido")
		}
	}
	return msgs
}
