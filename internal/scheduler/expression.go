package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseExpression parses a schedule expression. It accepts the EventBridge
// forms rate(value unit) and cron(min hour dom month dow year), five-field
// cron expressions and descriptors such as @hourly or @every 5m.
func ParseExpression(expression string) (cron.Schedule, error) {
	expression = strings.TrimSpace(expression)

	switch {
	case strings.HasPrefix(expression, "rate(") && strings.HasSuffix(expression, ")"):
		d, err := parseRate(expression[len("rate(") : len(expression)-1])
		if err != nil {
			return nil, err
		}
		return cron.Every(d), nil

	case strings.HasPrefix(expression, "cron(") && strings.HasSuffix(expression, ")"):
		spec, err := translateCron(expression[len("cron(") : len(expression)-1])
		if err != nil {
			return nil, err
		}
		expression = spec
	}

	schedule, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parsing cron expression: %w", err)
	}
	return schedule, nil
}

func parseRate(body string) (time.Duration, error) {
	fields := strings.Fields(body)
	if len(fields) != 2 {
		return 0, fmt.Errorf("rate expression needs a value and a unit: %q", body)
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("rate value must be a positive integer: %q", fields[0])
	}

	unit := fields[1]
	if (n == 1) != !strings.HasSuffix(unit, "s") {
		return 0, fmt.Errorf("rate unit %q does not agree with value %d", unit, n)
	}

	switch strings.TrimSuffix(unit, "s") {
	case "minute":
		return time.Duration(n) * time.Minute, nil
	case "hour":
		return time.Duration(n) * time.Hour, nil
	case "day":
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported rate unit %q", unit)
}

// translateCron converts the six-field EventBridge form to five fields.
// EventBridge numbers weekdays 1-7 from Sunday; robfig/cron uses 0-6.
func translateCron(body string) (string, error) {
	fields := strings.Fields(body)
	if len(fields) != 6 {
		return "", fmt.Errorf("cron expression needs six fields: %q", body)
	}
	if fields[5] != "*" {
		return "", fmt.Errorf("year field %q is not supported", fields[5])
	}

	for i, f := range fields[:5] {
		if strings.ContainsAny(f, "LW#") && !isNamed(f) {
			return "", fmt.Errorf("cron field %q is not supported", f)
		}
		if f == "?" {
			fields[i] = "*"
		}
	}

	dow, err := shiftWeekdays(fields[4])
	if err != nil {
		return "", err
	}
	fields[4] = dow

	return strings.Join(fields[:5], " "), nil
}

func isNamed(field string) bool {
	for _, part := range strings.FieldsFunc(field, func(r rune) bool { return r == ',' || r == '-' }) {
		if len(part) != 3 {
			return false
		}
	}
	return true
}

func shiftWeekdays(field string) (string, error) {
	if field == "*" {
		return field, nil
	}

	parts := strings.Split(field, ",")
	for i, part := range parts {
		rangePart, step, hasStep := strings.Cut(part, "/")
		bounds := strings.Split(rangePart, "-")
		for j, b := range bounds {
			n, err := strconv.Atoi(b)
			if err != nil {
				continue
			}
			if n < 1 || n > 7 {
				return "", fmt.Errorf("day of week %d out of range 1-7", n)
			}
			bounds[j] = strconv.Itoa(n - 1)
		}
		parts[i] = strings.Join(bounds, "-")
		if hasStep {
			parts[i] += "/" + step
		}
	}
	return strings.Join(parts, ","), nil
}
