package builtins

import (
	"crypto/sha256"
	"ebscript/pkg/object"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func verifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// signToken signs claims with HS256. An empty expiresIn leaves the token
// without an exp claim.
func signToken(claims map[string]any, secret, expiresIn string, now time.Time) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	if expiresIn != "" {
		d, err := time.ParseDuration(expiresIn)
		if err != nil {
			return "", fmt.Errorf("invalid duration: %v", err)
		}
		mc["exp"] = now.Add(d).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(secret))
}

func verifyToken(token, secret string) (map[string]any, error) {
	t, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := t.Claims.(jwt.MapClaims); ok && t.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func cryptoCategory() *category {
	c := newCategory("crypto")

	c.def("hashpassword", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		h, err := hashPassword(str(a, 0))
		if err != nil {
			return nil, object.Wrap(object.ValidationError, err)
		}
		return stringOf(h), nil
	}, req("password", kString))

	c.def("verifypassword", kBool, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		return object.NativeBool(verifyPassword(str(a, 0), str(a, 1))), nil
	}, req("hash", kString), req("password", kString))

	c.def("jwtsign", kString, func(ctx *Context, a []object.Object) (object.Object, *object.Error) {
		claims, ok := jsonArg(a, 0).Value.(map[string]any)
		if !ok {
			return nil, object.NewError(object.TypeError, "jwt claims must be a json object")
		}
		tok, err := signToken(claims, str(a, 1), optStr(a, 2, ""), ctx.Now())
		if err != nil {
			return nil, object.Wrap(object.ValidationError, err)
		}
		return stringOf(tok), nil
	}, req("claims", kJSON), req("secret", kString), opt("expires", kString))

	// jwtverify returns the claims, or null when the token is invalid or
	// expired.
	c.def("jwtverify", kJSON, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		claims, err := verifyToken(str(a, 0), str(a, 1))
		if err != nil {
			return object.NULL, nil
		}
		return &object.JSON{Value: object.Normalize(map[string]any(claims))}, nil
	}, req("token", kString), req("secret", kString))

	c.def("sha256", kString, func(_ *Context, a []object.Object) (object.Object, *object.Error) {
		sum := sha256.Sum256([]byte(str(a, 0)))
		return stringOf(hex.EncodeToString(sum[:])), nil
	}, req("value", kString))

	return c
}
