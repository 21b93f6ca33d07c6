/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package httpapi

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sentinelguard/sentinelguard/internal/auth"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New()
		_ = validatorInst.RegisterValidation("sg_username", validateUsernameTag)
		_ = validatorInst.RegisterValidation("sg_password", validatePasswordTag)
	})
	return validatorInst
}

func validateUsernameTag(fl validator.FieldLevel) bool {
	return auth.ValidateUsername(fl.Field().String()) == nil
}

func validatePasswordTag(fl validator.FieldLevel) bool {
	return auth.ValidatePasswordComplexity(fl.Field().String()) == nil
}

// registerRequest is the body of POST /api/auth/register.
type registerRequest struct {
	Username string `json:"username" validate:"required,sg_username"`
	Password string `json:"password" validate:"required,sg_password"`
}
