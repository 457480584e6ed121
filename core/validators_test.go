package core

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string          `json:"name" validate:"required,notblank"`
	Login  string          `json:"login" validate:"omitempty,alphanum_"`
	Phone  string          `json:"phone" validate:"omitempty,phone"`
	Fee    decimal.Decimal `json:"fee" validate:"decimal_nonnegative"`
	Amount decimal.Decimal `json:"amount" validate:"decimal_positive"`
	Period string          `json:"period" validate:"omitempty,period"`
	Secret string          `json:"-" validate:"omitempty,min=3"`
}

func TestValidate(t *testing.T) {
	valid := sample{Name: "Петя", Login: "petya_2", Phone: "+7 (900) 123-45-67", Fee: decimal.Zero, Amount: decimal.NewFromInt(1), Period: "2023-01"}

	tests := []struct {
		name string
		edit func(s *sample)
		want map[string]string
	}{
		{name: "valid", edit: func(s *sample) {}},
		{name: "missing name", edit: func(s *sample) { s.Name = "" }, want: map[string]string{"name": "this field is required"}},
		{name: "blank name", edit: func(s *sample) { s.Name = "   " }, want: map[string]string{"name": "this field cannot be blank"}},
		{name: "login", edit: func(s *sample) { s.Login = "petya!" }, want: map[string]string{"login": "only alphanumeric characters and underscores are allowed"}},
		{name: "phone", edit: func(s *sample) { s.Phone = "call me" }, want: map[string]string{"phone": "invalid phone number"}},
		{name: "negative fee", edit: func(s *sample) { s.Fee = decimal.NewFromInt(-1) }, want: map[string]string{"fee": "cannot be negative"}},
		{name: "zero amount", edit: func(s *sample) { s.Amount = decimal.Zero }, want: map[string]string{"amount": "must be greater than 0"}},
		{name: "period", edit: func(s *sample) { s.Period = "2023-1" }, want: map[string]string{"period": "period must be formatted as YYYY-MM"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.edit(&s)
			err := Validate.Struct(s)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), err)
			got := make(map[string]string)
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(Translator)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Петя Иванов", CleanString("  Петя Иванов \n"))
	assert.Equal(t, "oleg@test.ru", CleanString(" OLEG@test.ru", true))
	assert.Equal(t, "", CleanString("\t"))
}
