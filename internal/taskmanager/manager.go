// Package taskmanager 按任务类型记录进行中的异步任务，类型之间可以有父子关系，
// 某类型及其全部子类型都清空时触发完成回调
package taskmanager

import (
	"fmt"
	"sort"
	"sync"
)

// Callback 任务类型完成时的回调
type Callback func()

// Manager 任务管理器，单次操作独享一个实例
type Manager struct {
	mu           sync.Mutex
	nextID       int64
	parentChilds map[string][]string
	parents      map[string][]string
	tasks        map[string]map[int64]struct{}
	finished     map[string]bool
	callbacks    map[string]Callback
}

// New 创建任务管理器，parentChilds 中出现的子类型必须也是键，且不能成环
func New(parentChilds map[string][]string) (*Manager, error) {
	m := &Manager{
		parentChilds: make(map[string][]string, len(parentChilds)),
		parents:      make(map[string][]string),
		tasks:        make(map[string]map[int64]struct{}, len(parentChilds)),
		finished:     make(map[string]bool, len(parentChilds)),
		callbacks:    make(map[string]Callback),
	}
	for taskType, childs := range parentChilds {
		for _, child := range childs {
			if _, ok := parentChilds[child]; !ok {
				return nil, fmt.Errorf("task type %q: child %q is not declared", taskType, child)
			}
			m.parents[child] = append(m.parents[child], taskType)
		}
		m.parentChilds[taskType] = append([]string(nil), childs...)
		m.tasks[taskType] = make(map[int64]struct{})
		m.finished[taskType] = true
	}
	for _, ps := range m.parents {
		sort.Strings(ps)
	}
	if err := m.checkCycle(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) checkCycle() error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(m.parentChilds))
	var visit func(string) error
	visit = func(t string) error {
		switch state[t] {
		case visiting:
			return fmt.Errorf("task type %q is part of a cycle", t)
		case done:
			return nil
		}
		state[t] = visiting
		for _, child := range m.parentChilds[t] {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[t] = done
		return nil
	}
	for t := range m.parentChilds {
		if err := visit(t); err != nil {
			return err
		}
	}
	return nil
}

// SetCallback 设置任务类型完成时的回调，nil 表示移除
func (m *Manager) SetCallback(taskType string, fn Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		delete(m.callbacks, taskType)
		return
	}
	m.callbacks[taskType] = fn
}

// AddTask 添加任务并返回唯一的任务 id，未声明的类型会 panic
func (m *Manager) AddTask(taskType string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.tasks[taskType]
	if !ok {
		panic(fmt.Sprintf("taskmanager: unknown task type %q", taskType))
	}
	m.nextID++
	set[m.nextID] = struct{}{}
	m.markRunning(taskType)
	return m.nextID
}

// RemoveTask 移除任务；任务类型因此进入完成状态时，调用它及受影响祖先类型的回调。
// 重复移除或移除不存在的 id 不会触发回调
func (m *Manager) RemoveTask(taskType string, id int64) {
	m.mu.Lock()
	set, ok := m.tasks[taskType]
	if !ok {
		m.mu.Unlock()
		return
	}
	if _, ok := set[id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(set, id)
	fired := m.refresh(taskType, nil)
	m.mu.Unlock()

	for _, fn := range fired {
		fn()
	}
}

// ClearTask 强制清空某类型及其子类型的全部任务，视为取消，不触发回调
func (m *Manager) ClearTask(taskType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear(taskType)
	for _, parent := range m.parents[taskType] {
		m.refresh(parent, nil)
	}
}

func (m *Manager) clear(taskType string) {
	set, ok := m.tasks[taskType]
	if !ok {
		return
	}
	for id := range set {
		delete(set, id)
	}
	m.finished[taskType] = true
	for _, child := range m.parentChilds[taskType] {
		m.clear(child)
	}
}

// IsFinished 任务类型自身和所有子孙类型都没有进行中的任务
func (m *Manager) IsFinished(taskType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isFinished(taskType)
}

// IsRunning 与 IsFinished 相反
func (m *Manager) IsRunning(taskType string) bool {
	return !m.IsFinished(taskType)
}

// TaskCount 任务类型及其直接子类型中进行中的任务数
func (m *Manager) TaskCount(taskType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := len(m.tasks[taskType])
	for _, child := range m.parentChilds[taskType] {
		count += len(m.tasks[child])
	}
	return count
}

func (m *Manager) isFinished(taskType string) bool {
	if len(m.tasks[taskType]) > 0 {
		return false
	}
	for _, child := range m.parentChilds[taskType] {
		if !m.isFinished(child) {
			return false
		}
	}
	return true
}

func (m *Manager) markRunning(taskType string) {
	m.finished[taskType] = false
	for _, parent := range m.parents[taskType] {
		m.markRunning(parent)
	}
}

// refresh 重新计算 taskType 及其祖先的完成状态，收集由未完成变为完成的回调
func (m *Manager) refresh(taskType string, fired []Callback) []Callback {
	if m.finished[taskType] || !m.isFinished(taskType) {
		return fired
	}
	m.finished[taskType] = true
	if fn, ok := m.callbacks[taskType]; ok {
		fired = append(fired, fn)
	}
	for _, parent := range m.parents[taskType] {
		fired = m.refresh(parent, fired)
	}
	return fired
}
