package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"portSched/internal/anneal"
	"portSched/internal/bench"
	"portSched/internal/bnb"
	"portSched/internal/greedy"
	"portSched/internal/opt"
	"portSched/internal/tabu"
)

// Фабрики

func newBnBFactory(cfg bnb.Config) func(seed int64) opt.Optimizer {
	return func(_ int64) opt.Optimizer {
		solver, _ := bnb.New(cfg)
		return solver
	}
}

func newGreedyFactory() func(seed int64) opt.Optimizer {
	return func(_ int64) opt.Optimizer {
		return greedy.New()
	}
}

func newSAFactory(cfg anneal.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := anneal.New(cfg, rand.New(rand.NewSource(seed)))
		return solver
	}
}

func newTSFactory(cfg tabu.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := tabu.New(cfg, rand.New(rand.NewSource(seed)))
		return solver
	}
}

func main() {
	// CLI флаги для настройки параметров алгоритмов и политики запуска
	var (
		out          = flag.String("out", "artifacts/results.csv", "путь к выходному CSV-файлу")
		cases        = flag.String("cases", "40x6x1x50,80x10x2x100,150x16x4x200", "конфигурации: инстансы x конфигурации x юниты x бюджет (через запятую)")
		algos        = flag.String("algos", "BNB,GREEDY,SA,TS", "список алгоритмов: BNB, GREEDY, SA, TS (через запятую)")
		runs         = flag.Int("runs", 10, "количество запусков каждого алгоритма (с разными сидами)")
		baseSeed     = flag.Int64("seed", 1000, "базовый сид для запусков алгоритмов")
		catalogSeed  = flag.Int64("catalog_seed", 777, "базовый сид для генерации матрицы времён (фиксирован для конфигурации)")
		perRunTO     = flag.Duration("per_run_timeout", 0, "таймаут одного запуска; 0 — без ограничения")
		solveProb    = flag.Float64("solve_prob", 0.35, "вероятность того, что конфигурация решает инстанс")
		maxRuntime   = flag.Float64("max_runtime", 100.0, "максимальное наблюдаемое время решения")

		// --- Метод ветвей и границ ---
		bnbNodes   = flag.Int64("bnb_nodes", 2_000_000, "лимит узлов поиска (0 — без ограничения)")
		bnbWorkers = flag.Int("bnb_workers", 1, "количество параллельных воркеров")
		bnbSeed    = flag.Bool("bnb_seed_greedy", true, "инициализировать рекорд жадным решением")

		// --- Алгоритм имитации отжига ---
		saIterPerConf = flag.Int("sa_iter_per_conf", 4000, "количество итераций на одну конфигурацию (используется, если sa_iter == 0)")
		saIter        = flag.Int("sa_iter", 0, "общее количество итераций (0 => sa_iter_per_conf × nConfigs)")
		saT0          = flag.Float64("sa_t0", 2000.0, "начальная температура")
		saTmin        = flag.Float64("sa_tmin", 0.5, "конечная температура")
		saAlpha       = flag.Float64("sa_alpha", 0.995, "коэффициент охлаждения (alpha)")
		saNeigh       = flag.String("sa_neigh", "mixed", "тип окрестности: toggle | retime | move | mixed")

		// --- Табу-поиск ---
		tsIterPerConf = flag.Int("ts_iter_per_conf", 400, "количество итераций на одну конфигурацию (используется, если ts_iter == 0)")
		tsIter        = flag.Int("ts_iter", 0, "общее количество итераций (0 => ts_iter_per_conf × nConfigs)")
		tsTenure      = flag.Int("ts_tenure", 7, "длина табу-списка (в итерациях)")
		tsTenureRand  = flag.Int("ts_tenure_rand", 3, "случайное добавление к сроку табу [0..rand]")
		tsNeighbors   = flag.Int("ts_neighbors", 60, "количество рассматриваемых соседей на итерацию")
	)
	flag.Parse()

	ctx := context.Background()

	benchCases, err := parseCases(*cases, *catalogSeed, *solveProb, *maxRuntime)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт:", err)
		os.Exit(2)
	}

	bnbCfg := bnb.Config{
		MaxNodes:   *bnbNodes,
		Workers:    *bnbWorkers,
		SeedGreedy: *bnbSeed,
	}
	if err := bnbCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации метода ветвей и границ:", err)
		os.Exit(2)
	}

	saCfg := anneal.Config{
		Iterations:          *saIter,
		IterationsPerConfig: *saIterPerConf,
		InitialTemp:         *saT0,
		FinalTemp:           *saTmin,
		Alpha:               *saAlpha,
		Neighborhood:        anneal.Neighborhood(*saNeigh),
	}
	if err := saCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации алгоритма имитации отжига:", err)
		os.Exit(2)
	}

	tsCfg := tabu.Config{
		Iterations:          *tsIter,
		IterationsPerConfig: *tsIterPerConf,
		TabuTenure:          *tsTenure,
		TabuTenureRand:      *tsTenureRand,
		NeighborsPerIter:    *tsNeighbors,
	}
	if err := tsCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации табу-поиска:", err)
		os.Exit(2)
	}

	available := map[string]bench.Algorithm{
		"BNB":    {Name: "BNB", Factory: newBnBFactory(bnbCfg)},
		"GREEDY": {Name: "GREEDY", Factory: newGreedyFactory()},
		"SA":     {Name: "SA", Factory: newSAFactory(saCfg)},
		"TS":     {Name: "TS", Factory: newTSFactory(tsCfg)},
	}

	var selected []bench.Algorithm
	for _, a := range splitCSV(*algos) {
		al, ok := available[a]
		if !ok {
			fmt.Fprintf(os.Stderr, "Алгоритм не предоставлен в программе %q; доступные: %v\n", a, keys(available))
			os.Exit(2)
		}
		selected = append(selected, al)
	}

	runner := bench.Runner{
		Runs:          *runs,
		BaseSeed:      *baseSeed,
		PerRunTimeout: *perRunTO,
	}

	var records []bench.Record
	for _, c := range benchCases {
		for _, a := range selected {
			fmt.Printf("Запущен алгоритм %s; %d инстансов %d конфигураций %d юнитов бюджет %.1f (общее кол-во запусков=%d)...\n",
				a.Name, c.Instances, c.Configs, c.Units, c.Budget, runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Ошибка:", err)
				os.Exit(1)
			}
			records = append(records, rec)

			fmt.Printf("  Решено: лучшее=%d среднее=%.2f отклонение=%.2f | Квадратичная стоимость: среднее=%.2f | Время: среднее=%.2fms отклонение=%.2fms | Доказанных оптимумов=%d\n",
				rec.SolvedBest, rec.SolvedMean, rec.SolvedStd,
				rec.QuadMean,
				rec.TimeMeanMs, rec.TimeStdMs,
				rec.CompleteRuns,
			)
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка при записи в CSV:", err)
		os.Exit(1)
	}
	fmt.Println("Saved:", *out)
}

// helpers

func parseCases(s string, baseCatalogSeed int64, solveProb, maxRuntime float64) ([]bench.Case, error) {
	parts := splitCSV(s)
	cases := make([]bench.Case, 0, len(parts))

	for i, p := range parts {
		dims := strings.Split(p, "x")
		if len(dims) != 4 {
			return nil, fmt.Errorf("случай %q невалидной схемы, пример: 80x10x2x100", p)
		}
		instances, err := atoiStrict(dims[0])
		if err != nil {
			return nil, fmt.Errorf("случай %q: ошибка парсинга количества инстансов: %w", p, err)
		}
		configs, err := atoiStrict(dims[1])
		if err != nil {
			return nil, fmt.Errorf("случай %q: ошибка парсинга количества конфигураций: %w", p, err)
		}
		units, err := atoiStrict(dims[2])
		if err != nil {
			return nil, fmt.Errorf("случай %q: ошибка парсинга количества юнитов: %w", p, err)
		}
		budget, err := strconv.ParseFloat(strings.TrimSpace(dims[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("случай %q: ошибка парсинга бюджета: %w", p, err)
		}
		if instances <= 0 || configs <= 0 || units <= 0 || budget <= 0 {
			return nil, fmt.Errorf("случай %q: все размерности должны быть > 0", p)
		}

		seed := baseCatalogSeed + int64(i)*10_000 + int64(instances)*100 + int64(configs)

		cases = append(cases, bench.Case{
			Instances:   instances,
			Configs:     configs,
			Units:       units,
			Budget:      budget,
			SolveProb:   solveProb,
			MaxRuntime:  maxRuntime,
			CatalogSeed: seed,
		})
	}

	return cases, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
