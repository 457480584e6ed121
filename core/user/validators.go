package user

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	appfs "github.com/Brainhard-droid/sports-school-crm-sub001/fs"
)

const (
	allRolesTag        = "allroles"
	usernameOrEmailTag = "username_or_email"

	pwdMinLen           = 8
	pwdMaxSim           = .7
	commonPasswordsPath = "assets/common-passwords.txt"

	pwdMinLenTag     = "pwdminlen"
	pwdNoSpaceTag    = "pwdnospace"
	pwdNotAllNumTag  = "pwdnotallnum"
	pwdComplexityTag = "pwdcplx"
	pwdAttrSimTag    = "pwdtoosim"
	pwdNoCommonTag   = "pwdnocommon"
)

var (
	specialRegex    = regexp.MustCompile(`[^\p{L}0-9]`)
	commonPasswords = loadCommonPasswords()
)

// passwordRule is one clause of the staff password policy. attrs are the lowercased
// name, username and email of the account.
type passwordRule struct {
	tag    string
	text   string
	broken func(pwd string, attrs []string) bool
}

// passwordPolicy is checked in order; the first broken rule is reported.
var passwordPolicy = []passwordRule{
	{pwdMinLenTag, fmt.Sprintf("password must contain at least %d characters", pwdMinLen), func(pwd string, _ []string) bool {
		return len([]rune(pwd)) < pwdMinLen
	}},
	{pwdNoSpaceTag, "password must not contain whitespace", func(pwd string, _ []string) bool {
		return strings.IndexFunc(pwd, unicode.IsSpace) >= 0
	}},
	{pwdNotAllNumTag, "password cannot be entirely numeric", func(pwd string, _ []string) bool {
		return strings.IndexFunc(pwd, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
	}},
	{pwdComplexityTag, "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character", func(pwd string, _ []string) bool {
		has := func(f func(rune) bool) bool { return strings.IndexFunc(pwd, f) >= 0 }
		return !(has(unicode.IsUpper) && has(unicode.IsLower) && has(unicode.IsDigit) && specialRegex.MatchString(pwd))
	}},
	{pwdAttrSimTag, "password cannot be similar to user attributes", func(pwd string, attrs []string) bool {
		lpwd := strings.Split(strings.ToLower(pwd), "")
		for _, attr := range attrs {
			if attr != "" && difflib.NewMatcher(lpwd, strings.Split(attr, "")).QuickRatio() >= pwdMaxSim {
				return true
			}
		}
		return false
	}},
	{pwdNoCommonTag, "password is too common", func(pwd string, _ []string) bool {
		_, common := commonPasswords[strings.ToLower(pwd)]
		return common
	}},
}

func init() {
	_ = core.Validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(allRolesTag, "invalid roles")

	core.Validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{})
	core.RegisterCustomTranslation(usernameOrEmailTag, "one of username or email is required")
	for _, rule := range passwordPolicy {
		core.RegisterCustomTranslation(rule.tag, rule.text)
	}
}

func loadCommonPasswords() map[string]struct{} {
	set := make(map[string]struct{})
	file, err := appfs.FS.Open(commonPasswordsPath)
	if err != nil {
		return set
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			set[strings.ToLower(pwd)] = struct{}{}
		}
	}
	return set
}

func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		if !knownRole(role) {
			return false
		}
	}
	return true
}

func userStructValidation(sl validator.StructLevel) {
	var name, uname, email, pwd string
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		if usr.Username == "" && usr.Email == "" {
			sl.ReportError(usr.Username, "username", "Username", usernameOrEmailTag, "")
			sl.ReportError(usr.Email, "email", "Email", usernameOrEmailTag, "")
		}
		name, uname, email, pwd = usr.Name, usr.Username, usr.Email, usr.Password
	case UpdateUser:
		if usr.Password == "" {
			return
		}
		name, uname, email, pwd = usr.Name, usr.Username, usr.Email, usr.Password
	default:
		return
	}
	if tag := passwordPolicyViolation(pwd, name, uname, email); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// passwordPolicyViolation returns the tag of the first rule pwd breaks, "" if none.
func passwordPolicyViolation(pwd, name, uname, email string) string {
	attrs := []string{strings.ToLower(name), strings.ToLower(uname), strings.ToLower(email)}
	for _, rule := range passwordPolicy {
		if rule.broken(pwd, attrs) {
			return rule.tag
		}
	}
	return ""
}
