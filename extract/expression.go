package extract

import (
	gocontext "context"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
	"github.com/itchyny/gojq"
	jsoniter "github.com/json-iterator/go"
	"github.com/ohler55/ojg/jp"

	"github.com/flanksource/graphene/cache"
)

// Language of an expression extractor.
type Language string

const (
	LanguageCEL      Language = "cel"
	LanguageJQ       Language = "jq"
	LanguageJSONPath Language = "jsonpath"
)

// Expression is an extractor written in CEL, jq or JSONPath, evaluated
// against the JSON representation of a resource.
type Expression struct {
	Language Language `json:"language" yaml:"language"`
	Source   string   `json:"source" yaml:"source"`
}

// CEL evaluates src with the resource bound to the variable "resource".
func CEL(src string) Expression {
	return Expression{Language: LanguageCEL, Source: src}
}

// JQ evaluates src with the resource as input and keeps the first output.
func JQ(src string) Expression {
	return Expression{Language: LanguageJQ, Source: src}
}

// JSONPath selects src from the resource. Multiple matches are returned
// as a slice, no match as nil.
func JSONPath(src string) Expression {
	return Expression{Language: LanguageJSONPath, Source: src}
}

func (e Expression) String() string {
	return fmt.Sprintf("%s:%s", e.Language, e.Source)
}

// ParseExpression parses "cel:<src>", "jq:<src>" or "jsonpath:<src>".
// Anything else is returned unchanged as an accessor name.
func ParseExpression(s string) any {
	prefix, src, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(src) == "" {
		return s
	}

	switch Language(strings.ToLower(prefix)) {
	case LanguageCEL:
		return CEL(src)
	case LanguageJQ:
		return JQ(src)
	case LanguageJSONPath, "jp":
		return JSONPath(src)
	}
	return s
}

type program func(any) (any, error)

var programs = cache.NewCache[program]("expressions", 30*time.Minute)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func compileExpression[T any](e Expression) (Func[T], error) {
	prg, err := programs.GetOrSet(gocontext.Background(), e.String(), func() (program, error) {
		switch e.Language {
		case LanguageCEL:
			return compileCEL(e.Source)
		case LanguageJQ:
			return compileJQ(e.Source)
		case LanguageJSONPath:
			return compileJSONPath(e.Source)
		default:
			return nil, fmt.Errorf("unknown expression language %q", e.Language)
		}
	})
	if err != nil {
		return nil, err
	}

	return func(resource T) (any, error) {
		doc, err := toJSONValue(resource)
		if err != nil {
			return nil, err
		}
		return prg(doc)
	}, nil
}

func compileCEL(src string) (program, error) {
	env, err := cel.NewEnv(cel.Variable("resource", cel.DynType))
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid cel expression %q: %w", src, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("invalid cel expression %q: %w", src, err)
	}

	return func(doc any) (any, error) {
		out, _, err := prg.Eval(map[string]any{"resource": doc})
		if err != nil {
			return nil, err
		}
		return celNative(out), nil
	}, nil
}

func celNative(v ref.Val) any {
	switch native := v.Value().(type) {
	case []ref.Val:
		out := make([]any, len(native))
		for i, item := range native {
			out[i] = celNative(item)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(native))
		for k, item := range native {
			out[fmt.Sprint(k.Value())] = celNative(item)
		}
		return out
	default:
		return native
	}
}

func compileJQ(src string) (program, error) {
	query, err := gojq.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", src, err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", src, err)
	}

	return func(doc any) (any, error) {
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return nil, nil
		}
		if err, ok := v.(error); ok {
			return nil, err
		}
		return v, nil
	}, nil
}

func compileJSONPath(src string) (program, error) {
	expr, err := jp.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonPath expression %q: %w", src, err)
	}

	return func(doc any) (any, error) {
		results := expr.Get(doc)
		switch len(results) {
		case 0:
			return nil, nil
		case 1:
			return results[0], nil
		default:
			return results, nil
		}
	}, nil
}

// toJSONValue converts a resource into maps, slices and scalars.
func toJSONValue(resource any) (any, error) {
	b, err := json.Marshal(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", resource, err)
	}

	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %T: %w", resource, err)
	}
	return doc, nil
}
