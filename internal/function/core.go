package function

import (
	"encoding/base64"
	"math"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// now is swapped in tests.
var now = time.Now

// CoreLibrary returns the built-in "core:" function library.
func CoreLibrary() *Library {
	lib := NewLibrary("core", "core:")

	lib.Register("concat", concat, "Concatenates all parameters")
	lib.Register("substring", substring, "Returns the substring between a begin and an optional end index")
	lib.Register("stringLength", stringLength, "Returns the number of characters of a string")
	lib.Register("upperCase", upperCase, "Converts a string to upper case")
	lib.Register("lowerCase", lowerCase, "Converts a string to lower case")
	lib.Register("translate", translate, "Replaces all regular expression matches with a replacement")
	lib.Register("absolute", absolute, "Returns the absolute value of a number")
	lib.Register("average", average, "Returns the average of all numeric parameters")
	lib.Register("sum", sum, "Returns the sum of all numeric parameters")
	lib.Register("max", maximum, "Returns the largest numeric parameter")
	lib.Register("min", minimum, "Returns the smallest numeric parameter")
	lib.Register("ceil", ceil, "Rounds a number up to the next integer")
	lib.Register("floor", floor, "Rounds a number down to the previous integer")
	lib.Register("round", round, "Rounds a number to the closest integer")
	lib.Register("randomNumber", randomNumber, "Generates a random number with the given count of digits")
	lib.Register("randomString", randomString, "Generates a random string (length, UPPERCASE|LOWERCASE|MIXED, includeNumbers)")
	lib.Register("randomEnumValue", randomEnumValue, "Returns one of the parameters at random")
	lib.Register("randomUUID", randomUUID, "Generates a random UUID")
	lib.Register("currentDate", currentDate, "Returns the current date using an optional date format")
	lib.Register("encodeBase64", encodeBase64, "Encodes a string in base64")
	lib.Register("decodeBase64", decodeBase64, "Decodes a base64 string")
	lib.Register("urlEncode", urlEncode, "URL encodes a string")
	lib.Register("urlDecode", urlDecode, "Decodes a URL encoded string")
	lib.Register("escapeXml", escapeXML, "Escapes XML special characters")
	lib.Register("cdataSection", cdataSection, "Wraps a string in a CDATA section")

	return lib
}

func requireParams(params []string, minCount int) error {
	if len(params) < minCount {
		if minCount == 1 {
			return usageError("function parameters must not be empty")
		}
		return usageError("expected at least %d parameters, got %d", minCount, len(params))
	}
	return nil
}

func parseNumber(param string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(param), 64)
	if err != nil {
		return 0, usageError("%q is not a number", param)
	}
	return f, nil
}

func parseNumbers(params []string) ([]float64, error) {
	if err := requireParams(params, 1); err != nil {
		return nil, err
	}
	numbers := make([]float64, len(params))
	for i, p := range params {
		f, err := parseNumber(p)
		if err != nil {
			return nil, err
		}
		numbers[i] = f
	}
	return numbers, nil
}

func parseInt(param string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(param))
	if err != nil {
		return 0, usageError("%q is not an integer", param)
	}
	return n, nil
}

// formatDecimal renders a float with at least one fractional digit, so 3
// becomes "3.0" and 2.5 stays "2.5".
func formatDecimal(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

func concat(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return strings.Join(params, ""), nil
}

func substring(params []string) (string, error) {
	if err := requireParams(params, 2); err != nil {
		return "", err
	}

	runes := []rune(params[0])
	begin, err := parseInt(params[1])
	if err != nil {
		return "", err
	}
	end := len(runes)
	if len(params) > 2 {
		if end, err = parseInt(params[2]); err != nil {
			return "", err
		}
	}

	if begin < 0 || end > len(runes) || begin > end {
		return "", usageError("substring range [%d:%d] out of bounds for %q", begin, end, params[0])
	}
	return string(runes[begin:end]), nil
}

func stringLength(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return strconv.Itoa(len([]rune(params[0]))), nil
}

func upperCase(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return strings.ToUpper(params[0]), nil
}

func lowerCase(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return strings.ToLower(params[0]), nil
}

func translate(params []string) (string, error) {
	if err := requireParams(params, 3); err != nil {
		return "", err
	}
	re, err := regexp.Compile(params[1])
	if err != nil {
		return "", usageError("invalid regular expression %q: %v", params[1], err)
	}
	return re.ReplaceAllString(params[0], params[2]), nil
}

func absolute(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}

	param := strings.TrimSpace(params[0])
	if strings.Contains(param, ".") {
		f, err := parseNumber(param)
		if err != nil {
			return "", err
		}
		return formatDecimal(math.Abs(f)), nil
	}

	n, err := parseInt(param)
	if err != nil {
		return "", err
	}
	if n < 0 {
		n = -n
	}
	return strconv.Itoa(n), nil
}

func average(params []string) (string, error) {
	numbers, err := parseNumbers(params)
	if err != nil {
		return "", err
	}
	var total float64
	for _, n := range numbers {
		total += n
	}
	return formatDecimal(total / float64(len(numbers))), nil
}

func sum(params []string) (string, error) {
	numbers, err := parseNumbers(params)
	if err != nil {
		return "", err
	}
	var total float64
	for _, n := range numbers {
		total += n
	}
	return formatDecimal(total), nil
}

func maximum(params []string) (string, error) {
	numbers, err := parseNumbers(params)
	if err != nil {
		return "", err
	}
	result := numbers[0]
	for _, n := range numbers[1:] {
		result = math.Max(result, n)
	}
	return formatDecimal(result), nil
}

func minimum(params []string) (string, error) {
	numbers, err := parseNumbers(params)
	if err != nil {
		return "", err
	}
	result := numbers[0]
	for _, n := range numbers[1:] {
		result = math.Min(result, n)
	}
	return formatDecimal(result), nil
}

func ceil(params []string) (string, error) {
	numbers, err := parseNumbers(params[:min(len(params), 1)])
	if err != nil {
		return "", err
	}
	return formatDecimal(math.Ceil(numbers[0])), nil
}

func floor(params []string) (string, error) {
	numbers, err := parseNumbers(params[:min(len(params), 1)])
	if err != nil {
		return "", err
	}
	return formatDecimal(math.Floor(numbers[0])), nil
}

func round(params []string) (string, error) {
	numbers, err := parseNumbers(params[:min(len(params), 1)])
	if err != nil {
		return "", err
	}
	// Half values round towards positive infinity.
	return strconv.FormatInt(int64(math.Floor(numbers[0]+0.5)), 10), nil
}

const (
	digits     = "0123456789"
	upperAlpha = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlpha = "abcdefghijklmnopqrstuvwxyz"
)

func randomFrom(alphabet string, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

func randomNumber(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	length, err := parseInt(params[0])
	if err != nil {
		return "", err
	}
	if length <= 0 {
		return "", usageError("number length must be greater than zero")
	}

	number := randomFrom(digits[1:], 1) + randomFrom(digits, length-1)
	if len(params) > 1 && strings.EqualFold(strings.TrimSpace(params[1]), "false") {
		trimmed := strings.TrimLeft(number, "0")
		if trimmed == "" {
			trimmed = "0"
		}
		number = trimmed
	}
	return number, nil
}

func randomString(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	length, err := parseInt(params[0])
	if err != nil {
		return "", err
	}
	if length <= 0 {
		return "", usageError("string length must be greater than zero")
	}

	alphabet := upperAlpha + lowerAlpha
	if len(params) > 1 {
		switch strings.ToUpper(strings.TrimSpace(params[1])) {
		case "UPPERCASE":
			alphabet = upperAlpha
		case "LOWERCASE":
			alphabet = lowerAlpha
		case "MIXED", "":
		default:
			return "", usageError("unknown notation %q, expected UPPERCASE, LOWERCASE or MIXED", params[1])
		}
	}
	if len(params) > 2 && strings.EqualFold(strings.TrimSpace(params[2]), "true") {
		alphabet += digits
	}

	return randomFrom(alphabet, length), nil
}

func randomEnumValue(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return params[rand.IntN(len(params))], nil
}

func randomUUID(_ []string) (string, error) {
	return uuid.NewString(), nil
}

var javaDateLayout = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"SSS", "000",
)

func currentDate(params []string) (string, error) {
	layout := "dd.MM.yyyy"
	if len(params) > 0 && strings.TrimSpace(params[0]) != "" {
		layout = params[0]
	}
	return now().Format(javaDateLayout.Replace(layout)), nil
}

func encodeBase64(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(params[0])), nil
}

func decodeBase64(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	decoded, err := base64.StdEncoding.DecodeString(params[0])
	if err != nil {
		return "", usageError("invalid base64 input: %v", err)
	}
	return string(decoded), nil
}

func urlEncode(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return url.QueryEscape(params[0]), nil
}

func urlDecode(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	decoded, err := url.QueryUnescape(params[0])
	if err != nil {
		return "", usageError("invalid url encoded input: %v", err)
	}
	return decoded, nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return xmlEscaper.Replace(params[0]), nil
}

func cdataSection(params []string) (string, error) {
	if err := requireParams(params, 1); err != nil {
		return "", err
	}
	return "<![CDATA[" + params[0] + "]]>", nil
}
