package service

import (
	"context"
	"fmt"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IncidentService 故障报修服务
type IncidentService struct {
	db            *gorm.DB
	incidentRepo  *repository.IncidentRepository
	equipmentRepo *repository.EquipmentRepository
	logRepo       *repository.ActivityLogRepository
	clock         Clock
}

// NewIncidentService 创建报修服务
func NewIncidentService(db *gorm.DB, repos *repository.Repositories, clock Clock) *IncidentService {
	return &IncidentService{
		db:            db,
		incidentRepo:  repos.Incident,
		equipmentRepo: repos.Equipment,
		logRepo:       repos.ActivityLog,
		clock:         clock,
	}
}

// ReportIncidentRequest 报修请求
type ReportIncidentRequest struct {
	EquipmentID string `json:"equipment_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// ResolveIncidentRequest 解决报修请求
type ResolveIncidentRequest struct {
	ResolutionNotes string `json:"resolution_notes" binding:"required"`
	Condition       string `json:"condition"` // 修后品相，可空
}

// IncidentListResult 报修单列表结果
type IncidentListResult struct {
	Items      []entity.Incident `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// Report 报修。空闲设备立即标记为 damaged，借出/维修中的设备状态不动，
// 等当前流程结束后由归还或完修环节处理。
func (s *IncidentService) Report(ctx context.Context, reporterID string, req *ReportIncidentRequest) (*entity.Incident, error) {
	priority := req.Priority
	if priority == "" {
		priority = entity.IncidentPriorityMedium
	}
	if entity.IncidentPriorityRank[priority] == 0 {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidState, priority)
	}

	// 报修不设门槛：只要设备存在就受理，含已报废设备
	if _, err := s.equipmentRepo.FindByID(ctx, req.EquipmentID); err != nil {
		return nil, err
	}

	var inc *entity.Incident
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inc = &entity.Incident{
			ID:          uuid.New().String()[:32],
			EquipmentID: req.EquipmentID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    priority,
			Status:      entity.IncidentStatusReported,
			ReportedBy:  reporterID,
		}
		if err := tx.Create(inc).Error; err != nil {
			return fmt.Errorf("create incident: %w", err)
		}

		locked, err := lockEquipment(tx, req.EquipmentID)
		if err != nil {
			return err
		}
		if locked.Status == entity.EquipmentStatusAvailable {
			if err := setEquipmentStatus(tx, locked, entity.EquipmentStatusDamaged, "故障报修: "+req.Title, reporterID); err != nil {
				return err
			}
		}

		return repository.AppendLog(tx, "incident", inc.ID, "create", "", inc.Status, req.Title, reporterID)
	})
	if err != nil {
		return nil, err
	}
	return inc, nil
}

// Get 获取报修单详情
func (s *IncidentService) Get(ctx context.Context, id string) (*entity.Incident, error) {
	return s.incidentRepo.FindByID(ctx, id)
}

// List 分页查询报修单
func (s *IncidentService) List(ctx context.Context, page, pageSize int, filters map[string]string) (*IncidentListResult, error) {
	items, total, err := s.incidentRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &IncidentListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Review 开始审核：reported -> in_review
func (s *IncidentService) Review(ctx context.Context, id, operatorID string) (*entity.Incident, error) {
	return s.transition(ctx, id, entity.IncidentStatusInReview, "review", "", operatorID)
}

// Assign 指派维修人并进入审核中。只接受 reported/in_review 状态的报修单。
func (s *IncidentService) Assign(ctx context.Context, id, operatorID, assigneeID string) (*entity.Incident, error) {
	inc, err := s.incidentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc.Status != entity.IncidentStatusReported && inc.Status != entity.IncidentStatusInReview {
		return nil, fmt.Errorf("%w: cannot assign incident in status %s", ErrInvalidState, inc.Status)
	}

	fromStatus := inc.Status
	inc.AssignedTo = &assigneeID
	inc.Status = entity.IncidentStatusInReview
	if err := s.incidentRepo.Update(ctx, inc); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	s.logRepo.LogActivity(ctx, "incident", inc.ID, "assign", fromStatus, inc.Status, "指派维修人 "+assigneeID, operatorID)
	return inc, nil
}

// Unassign 撤销指派并退回待处理。维修进行中或已结束的报修单不能撤销。
func (s *IncidentService) Unassign(ctx context.Context, id, operatorID string) (*entity.Incident, error) {
	inc, err := s.incidentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc.Status != entity.IncidentStatusReported && inc.Status != entity.IncidentStatusInReview {
		return nil, fmt.Errorf("%w: cannot unassign incident in status %s", ErrInvalidState, inc.Status)
	}
	if inc.AssignedTo == nil {
		return nil, fmt.Errorf("%w: incident has no assignee", ErrInvalidState)
	}

	fromStatus := inc.Status
	inc.AssignedTo = nil
	inc.Status = entity.IncidentStatusReported
	if err := s.incidentRepo.Update(ctx, inc); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	s.logRepo.LogActivity(ctx, "incident", inc.ID, "unassign", fromStatus, inc.Status, "撤销指派", operatorID)
	return inc, nil
}

// StartRepair 开始维修：in_review -> in_repair，并取得设备归属权。
// 必须先指派维修人。
func (s *IncidentService) StartRepair(ctx context.Context, id, operatorID string) (*entity.Incident, error) {
	var started *entity.Incident
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inc entity.Incident
		if err := findForUpdate(tx, id, &inc); err != nil {
			return err
		}
		if !validTransition(entity.ValidIncidentTransitions, inc.Status, entity.IncidentStatusInRepair) {
			return fmt.Errorf("%w: cannot start repair in status %s", ErrInvalidState, inc.Status)
		}
		if inc.AssignedTo == nil {
			return fmt.Errorf("%w: incident has no assignee", ErrInvalidState)
		}

		eq, err := takeEquipment(tx, inc.EquipmentID, entity.EquipmentStatusMaintenance, entity.UnownedStatuses, "故障维修: "+inc.Title, operatorID)
		if err != nil {
			return err
		}

		fromStatus := inc.Status
		inc.Status = entity.IncidentStatusInRepair
		if err := tx.Save(&inc).Error; err != nil {
			return fmt.Errorf("update incident: %w", err)
		}
		if err := repository.AppendLog(tx, "incident", inc.ID, "start_repair", fromStatus, inc.Status, "开始维修: "+eq.Name, operatorID); err != nil {
			return err
		}
		started = &inc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// Resolve 解决报修。从 in_repair 解决会释放设备；
// 从 in_review 直接解决（误报）不动设备状态，除非设备是报修时标的 damaged。
func (s *IncidentService) Resolve(ctx context.Context, id, operatorID string, req *ResolveIncidentRequest) (*entity.Incident, error) {
	var resolved *entity.Incident
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inc entity.Incident
		if err := findForUpdate(tx, id, &inc); err != nil {
			return err
		}
		if !validTransition(entity.ValidIncidentTransitions, inc.Status, entity.IncidentStatusResolved) {
			return fmt.Errorf("%w: cannot resolve incident in status %s", ErrInvalidState, inc.Status)
		}

		if req.Condition != "" {
			if !entity.ValidConditions[req.Condition] {
				return fmt.Errorf("%w: unknown condition %q", ErrInvalidState, req.Condition)
			}
			if err := tx.Model(&entity.Equipment{}).
				Where("id = ?", inc.EquipmentID).
				Update("condition", req.Condition).Error; err != nil {
				return err
			}
		}

		ownedStatus := entity.EquipmentStatusMaintenance
		if inc.Status == entity.IncidentStatusInReview {
			ownedStatus = entity.EquipmentStatusDamaged
		}
		if err := releaseEquipment(tx, inc.EquipmentID, ownedStatus, entity.EquipmentStatusAvailable, "报修解决", operatorID); err != nil {
			return err
		}

		now := s.clock.Now()
		fromStatus := inc.Status
		inc.Status = entity.IncidentStatusResolved
		inc.ResolutionNotes = req.ResolutionNotes
		inc.ResolvedAt = &now
		if err := tx.Save(&inc).Error; err != nil {
			return fmt.Errorf("update incident: %w", err)
		}
		if err := repository.AppendLog(tx, "incident", inc.ID, "resolve", fromStatus, inc.Status, req.ResolutionNotes, operatorID); err != nil {
			return err
		}
		resolved = &inc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// Close 关闭报修单：resolved -> closed
func (s *IncidentService) Close(ctx context.Context, id, operatorID string) (*entity.Incident, error) {
	inc, err := s.incidentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validTransition(entity.ValidIncidentTransitions, inc.Status, entity.IncidentStatusClosed) {
		return nil, fmt.Errorf("%w: cannot close incident in status %s", ErrInvalidState, inc.Status)
	}

	now := s.clock.Now()
	fromStatus := inc.Status
	inc.Status = entity.IncidentStatusClosed
	inc.ClosedAt = &now
	if err := s.incidentRepo.Update(ctx, inc); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	s.logRepo.LogActivity(ctx, "incident", inc.ID, "close", fromStatus, inc.Status, "", operatorID)
	return inc, nil
}

// Reopen 重开已关闭的报修单。清掉上一轮的解决记录；
// 维修人还在就回到 in_review，否则回到 reported 重新走流程。
func (s *IncidentService) Reopen(ctx context.Context, id, operatorID, reason string) (*entity.Incident, error) {
	inc, err := s.incidentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc.Status != entity.IncidentStatusClosed {
		return nil, fmt.Errorf("%w: cannot reopen incident in status %s", ErrInvalidState, inc.Status)
	}

	toStatus := entity.IncidentStatusReported
	if inc.AssignedTo != nil {
		toStatus = entity.IncidentStatusInReview
	}

	fromStatus := inc.Status
	inc.Status = toStatus
	inc.ResolutionNotes = ""
	inc.ResolvedAt = nil
	inc.ClosedAt = nil
	if err := s.incidentRepo.Update(ctx, inc); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	s.logRepo.LogActivity(ctx, "incident", inc.ID, "reopen", fromStatus, inc.Status, reason, operatorID)
	return inc, nil
}

// transition 通用状态流转（不涉及设备状态的）
func (s *IncidentService) transition(ctx context.Context, id, toStatus, action, content, operatorID string) (*entity.Incident, error) {
	inc, err := s.incidentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validTransition(entity.ValidIncidentTransitions, inc.Status, toStatus) {
		return nil, fmt.Errorf("%w: cannot move incident from %s to %s", ErrInvalidState, inc.Status, toStatus)
	}

	fromStatus := inc.Status
	inc.Status = toStatus
	if err := s.incidentRepo.Update(ctx, inc); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	s.logRepo.LogActivity(ctx, "incident", inc.ID, action, fromStatus, toStatus, content, operatorID)
	return inc, nil
}
