package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	_ "net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/o0olele/barneshut-go/builder"
	"github.com/o0olele/barneshut-go/geometry"
	"github.com/o0olele/barneshut-go/math32"
	"github.com/o0olele/barneshut-go/octree"
	"github.com/o0olele/barneshut-go/simulation"
)

// 单步请求的最大步数
const maxStepsPerRequest = 10000

// 树查询中的粒子
type TreeBody struct {
	ID       uint32         `json:"id"`
	Position math32.Vector3 `json:"position"`
	Mass     float32        `json:"mass"`
}

// 查询点
type QueryPoint struct {
	ID       uint32         `json:"id"`
	Position math32.Vector3 `json:"position"`
}

// 建树请求结构，bounds 为空时使用粒子的包围盒
type TreeRequest struct {
	Bounds *geometry.AABB `json:"bounds,omitempty"`
	Bodies []TreeBody     `json:"bodies"`
}

// 力查询请求结构
type ForceRequest struct {
	TreeRequest
	Query         QueryPoint `json:"query"`
	ForceConstant float32    `json:"force_constant"`
	DistanceExp   int32      `json:"distance_exp"`
	Theta         float32    `json:"theta"`
}

// 力查询响应结构
type ForceResponse struct {
	Force math32.Vector3 `json:"force"`
}

// 质点查询响应结构
type PointMassesResponse struct {
	PointMasses []octree.PointMass `json:"point_masses"`
	Count       int                `json:"count"`
}

// 快照文件请求结构
type FileRequest struct {
	Filename string `json:"filename"`
}

// 模拟状态响应结构
type BodiesResponse struct {
	Tick      uint64         `json:"tick"`
	Bodies    []builder.Body `json:"bodies"`
	ElapsedMs float64        `json:"elapsed_ms,omitempty"`
}

// server holds the current simulation shared by the handlers.
type server struct {
	mu  sync.RWMutex
	sim *simulation.Simulator
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// buildTree 根据请求构建八叉树
func buildTree(req *TreeRequest) (*octree.Tree[uint32], error) {
	var bounds geometry.AABB
	if req.Bounds != nil {
		bounds = *req.Bounds
	} else if len(req.Bodies) > 0 {
		bounds = geometry.EmptyAABB()
		for _, body := range req.Bodies {
			bounds.Extend(body.Position)
		}
	}
	if !bounds.IsValid() {
		return nil, fmt.Errorf("invalid bounds: %+v", bounds)
	}

	tree := octree.NewFromAABB[uint32](bounds)
	for _, body := range req.Bodies {
		if !body.Position.IsFinite() || !math32.IsFinite(body.Mass) {
			return nil, fmt.Errorf("body %d has non-finite state", body.ID)
		}
		tree.Insert(body.ID, body.Position, body.Mass)
	}
	return tree, nil
}

// 计算合力
func (s *server) forceHandler(w http.ResponseWriter, r *http.Request) {
	var req ForceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Theta < 0 {
		http.Error(w, "Theta must not be negative", http.StatusBadRequest)
		return
	}

	tree, err := buildTree(&req.TreeRequest)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	force := tree.Force(req.Query.ID, req.Query.Position, req.ForceConstant, req.DistanceExp, req.Theta)
	writeJSON(w, ForceResponse{Force: force})
}

// 获取近似质点
func (s *server) pointMassesHandler(w http.ResponseWriter, r *http.Request) {
	var req ForceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Theta < 0 {
		http.Error(w, "Theta must not be negative", http.StatusBadRequest)
		return
	}

	tree, err := buildTree(&req.TreeRequest)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	masses := tree.PointMasses(req.Query.ID, req.Query.Position, req.Theta)
	writeJSON(w, PointMassesResponse{PointMasses: masses, Count: len(masses)})
}

// 获取八叉树结构
func (s *server) exportTreeHandler(w http.ResponseWriter, r *http.Request) {
	var req TreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	tree, err := buildTree(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := tree.ToJSON()
	if err != nil {
		http.Error(w, "Failed to serialize octree", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// 初始化模拟
func (s *server) initSimHandler(w http.ResponseWriter, r *http.Request) {
	cfg := simulation.DefaultConfig()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	sim, err := simulation.NewSimulator(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.sim = sim
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{"status": "initialized", "bodies": cfg.Particles})
}

// 推进模拟
func (s *server) stepSimHandler(w http.ResponseWriter, r *http.Request) {
	steps := 1
	if v := r.URL.Query().Get("steps"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxStepsPerRequest {
			http.Error(w, "Invalid steps parameter", http.StatusBadRequest)
			return
		}
		steps = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusBadRequest)
		return
	}

	begTime := time.Now()
	if err := s.sim.Run(r.Context(), steps); err != nil {
		http.Error(w, fmt.Sprintf("Failed to step simulation: %v", err), http.StatusInternalServerError)
		return
	}
	elapsed := time.Since(begTime)

	writeJSON(w, BodiesResponse{
		Tick:      s.sim.Tick(),
		Bodies:    s.sim.Bodies(),
		ElapsedMs: float64(elapsed.Microseconds()) / 1000,
	})
}

// 获取粒子状态
func (s *server) bodiesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusBadRequest)
		return
	}

	writeJSON(w, BodiesResponse{Tick: s.sim.Tick(), Bodies: s.sim.Bodies()})
}

// 获取每个种类的树统计
func (s *server) statsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"tick":  s.sim.Tick(),
		"kinds": s.sim.Stats(),
	})
}

// 保存快照
func (s *server) saveHandler(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusBadRequest)
		return
	}

	if err := s.sim.Save(req.Filename); err != nil {
		http.Error(w, fmt.Sprintf("Failed to save snapshot: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "saved"})
}

// 加载快照
func (s *server) loadHandler(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	cfg := simulation.DefaultConfig()
	s.mu.RLock()
	if s.sim != nil {
		cfg = s.sim.Config()
	}
	s.mu.RUnlock()

	begTime := time.Now()
	sim, err := simulation.Load(cfg, req.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, builder.ErrInvalidMagic) || errors.Is(err, builder.ErrUnsupportedVersion) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("Failed to load snapshot: %v", err), status)
		return
	}
	log.WithField("filename", req.Filename).Infof("Load snapshot time: %v", time.Since(begTime))

	s.mu.Lock()
	s.sim = sim
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"status": "loaded",
		"tick":   sim.Tick(),
		"bodies": len(sim.Bodies()),
	})
}

// 获取快照文件信息
func (s *server) fileInfoHandler(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "Missing filename parameter", http.StatusBadRequest)
		return
	}

	info, err := builder.GetFileInfo(filename)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get file info: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, info)
}

func newRouter(s *server) http.Handler {
	r := mux.NewRouter()

	// API 路由
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tree/force", s.forceHandler).Methods("POST")
	api.HandleFunc("/tree/pointmasses", s.pointMassesHandler).Methods("POST")
	api.HandleFunc("/tree/export", s.exportTreeHandler).Methods("POST")
	api.HandleFunc("/sim/init", s.initSimHandler).Methods("POST")
	api.HandleFunc("/sim/step", s.stepSimHandler).Methods("POST")
	api.HandleFunc("/sim/bodies", s.bodiesHandler).Methods("GET")
	api.HandleFunc("/sim/stats", s.statsHandler).Methods("GET")
	api.HandleFunc("/sim/save", s.saveHandler).Methods("POST")
	api.HandleFunc("/sim/load", s.loadHandler).Methods("POST")
	api.HandleFunc("/sim/info", s.fileInfoHandler).Methods("GET")

	// 配置CORS
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(r)
}

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	pprofAddr := flag.String("pprof", "localhost:6060", "pprof listen address, empty to disable")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	lvl, err := log.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *level)
		os.Exit(2)
	}
	log.SetLevel(lvl)

	if *pprofAddr != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	handler := newRouter(&server{})

	log.Infof("Server starting on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, handler))
}
