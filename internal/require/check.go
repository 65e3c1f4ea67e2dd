package require

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/neoprene-dev/neoprene/internal/util"
)

// Check looks for one tool with "command -v", which every POSIX shell has.
// The error is reserved for channel failures.
func Check(ctx context.Context, runner remote.Runner, tool Tool) (CheckResult, error) {
	result := CheckResult{Tool: tool}
	if !ValidateToolName(tool.Name) {
		return result, nil
	}

	cmd := "command -v " + util.ShellPath(tool.Name)
	var (
		res remote.Result
		err error
	)
	if tool.Where == Local {
		res, err = runner.RunLocal(ctx, cmd, true)
	} else {
		res, err = runner.RunRemote(ctx, tool.Dir, cmd)
	}
	if err != nil {
		return result, err
	}
	if !res.OK() {
		return result, nil
	}

	result.Satisfied = true
	result.Path = strings.TrimSpace(res.Stdout)
	return result, nil
}

// CheckAll checks every tool, in parallel, skipping those already in cache.
// Results keep the order of tools. hostName scopes remote results in cache.
func CheckAll(ctx context.Context, runner remote.Runner, tools []Tool, cache *Cache, hostName string) ([]CheckResult, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	results := make([]CheckResult, len(tools))
	var toCheck []int

	for i, t := range tools {
		if cached, ok := cache.Get(scope(t, hostName), cacheKey(t)); ok {
			results[i] = cached
		} else {
			toCheck = append(toCheck, i)
		}
	}
	if len(toCheck) == 0 {
		return results, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, idx := range toCheck {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			result, err := Check(ctx, runner, tools[i])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[i] = result
			cache.Set(scope(tools[i], hostName), cacheKey(tools[i]), result)
		}(idx)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// Preflight fails with an EXEC error naming every missing tool.
func Preflight(ctx context.Context, runner remote.Runner, tools []Tool, cache *Cache, hostName string) error {
	results, err := CheckAll(ctx, runner, tools, cache, hostName)
	if err != nil {
		return err
	}

	missing := FilterMissing(results)
	if len(missing) == 0 {
		return nil
	}
	return errors.New(errors.ErrExec,
		fmt.Sprintf("Missing tools: %s", FormatMissing(missing)),
		"Install them, or set the full path under 'tools' in .neoprene.yaml.")
}

// FilterMissing returns only the unsatisfied requirements.
func FilterMissing(results []CheckResult) []CheckResult {
	var missing []CheckResult
	for _, r := range results {
		if !r.Satisfied {
			missing = append(missing, r)
		}
	}
	return missing
}

// FormatMissing lists missing tools with the machine each belongs on.
func FormatMissing(missing []CheckResult) string {
	parts := make([]string, len(missing))
	for i, m := range missing {
		parts[i] = fmt.Sprintf("%s (%s)", m.Tool.Name, m.Tool.Where)
	}
	return strings.Join(parts, ", ")
}

func scope(t Tool, hostName string) string {
	if t.Where == Local {
		return "localhost"
	}
	return hostName
}

func cacheKey(t Tool) string {
	if t.Dir == "" {
		return t.Name
	}
	return t.Dir + ":" + t.Name
}
