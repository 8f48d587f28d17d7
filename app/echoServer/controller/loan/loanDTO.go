package loan

type CreateLoanReq struct {
	BookID  int64   `json:"book_id" validate:"required,gt=0"`
	DueDate string  `json:"due_date" validate:"required,dateonly"`
	Note    *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type DecideReq struct {
	Action string  `json:"action" validate:"required,oneof=approve reject"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type NoteReq struct {
	Note *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type ReturnReq struct {
	LoanID int64 `json:"loan_id" validate:"required,gt=0"`
}
