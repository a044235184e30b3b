package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ryitech/institute/core/principal"
)

type principalAPI struct {
	deps *ServerDeps
}

func registerPrincipalAPI(g *echo.Group, authn echo.MiddlewareFunc, deps *ServerDeps) {
	api := principalAPI{deps: deps}

	// public
	g.POST("/register", api.registerAdmin)
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
	g.POST("/google-login", api.googleLogin)
	g.POST("/forgetPassword", api.forgotPassword)
	g.POST("/resetPassword/:token", api.resetPassword)
	g.POST("/verifyOtp", api.verifyOTP)
	g.POST("/resend-otp", api.resendOTP)

	// authenticated
	g.GET("/get-user-details", api.userDetails, authn)
	g.POST("/branchadmin", api.createBranchAdmin, authn)
	g.GET("/get-all-branch-admins", api.listBranchAdmins, authn)
	g.PUT("/update-branch-admin/:id", api.updateBranchAdmin, authn)
	g.DELETE("/delete-branch-admin/:id", api.deleteBranchAdmin, authn)
	g.POST("/register-user", api.registerStudent, authn)
	g.GET("/get-all-users", api.listStudents, authn)
	g.POST("/get-user-by-id", api.getStudent, authn)
	g.PUT("/update-user/:id", api.updateStudent, authn)
	g.DELETE("/delete-user/:id", api.deleteStudent, authn)
}

func (api *principalAPI) registerAdmin(ctx echo.Context) error {
	var data principal.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.PrincipalSvc.RegisterAdmin(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, success("OTP sent to your email, please verify"))
}

func (api *principalAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	token, p, err := api.deps.Auth.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return err
	}
	setSessionCookie(ctx, token, api.deps.Conf.Server.SessionTokenDelta)
	return ctx.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Message: "Login successful",
		User:    principal.Summarize(p),
		Token:   token,
	})
}

func (api *principalAPI) logout(ctx echo.Context) error {
	clearSessionCookie(ctx)
	return ctx.JSON(http.StatusCreated, success("Logged Out"))
}

func (api *principalAPI) googleLogin(ctx echo.Context) error {
	var data GoogleLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	token, student, err := api.deps.Auth.GoogleLogin(ctx.Request().Context(), data.Credential)
	if err != nil {
		return err
	}
	setSessionCookie(ctx, token, api.deps.Conf.Server.SessionTokenDelta)
	return ctx.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Message: "Login successful",
		User:    principal.Summarize(student),
		Token:   token,
	})
}

func (api *principalAPI) forgotPassword(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.Auth.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success("Password reset link sent to your email"))
}

func (api *principalAPI) resetPassword(ctx echo.Context) error {
	var data ResetPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}
	if err := api.deps.Auth.ConfirmPasswordReset(ctx.Request().Context(), ctx.Param("token"), data.Password); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success("Password reset successful"))
}

func (api *principalAPI) verifyOTP(ctx echo.Context) error {
	var data VerifyOTPRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.PrincipalSvc.VerifyOTP(ctx.Request().Context(), data.Email, data.OTP); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success("Account verified successfully"))
}

func (api *principalAPI) resendOTP(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.PrincipalSvc.ResendOTP(ctx.Request().Context(), data.Email); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success("OTP resent to your email"))
}

func (api *principalAPI) userDetails(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, principal.Summarize(getContextPrincipal(ctx)))
}

func (api *principalAPI) createBranchAdmin(ctx echo.Context) error {
	var data principal.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	data.Role = principal.RoleBranchAdmin
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if err := api.deps.PrincipalSvc.CreateBranchAdmin(ctx.Request().Context(), getContextPrincipal(ctx), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, success("OTP sent to your email, please verify"))
}

func (api *principalAPI) listBranchAdmins(ctx echo.Context) error {
	admins, err := api.deps.PrincipalSvc.QueryBranchAdmins(ctx.Request().Context(), getContextPrincipal(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, admins)
}

func (api *principalAPI) updateBranchAdmin(ctx echo.Context) error {
	var data principal.UpdateAdmin
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}
	admin, err := api.deps.PrincipalSvc.UpdateAdmin(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, admin)
}

func (api *principalAPI) deleteBranchAdmin(ctx echo.Context) error {
	if err := api.deps.PrincipalSvc.DeleteAdmin(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success("Branch admin deleted successfully"))
}

func (api *principalAPI) registerStudent(ctx echo.Context) error {
	var data principal.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	photos, err := readUploads(ctx, "image")
	if err != nil {
		return err
	}
	if err := api.deps.PrincipalSvc.CreateStudent(ctx.Request().Context(), getContextPrincipal(ctx), data, photos); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, success("OTP sent to the student's email, please verify"))
}

func (api *principalAPI) listStudents(ctx echo.Context) error {
	students, err := api.deps.PrincipalSvc.QueryStudents(ctx.Request().Context(), getContextPrincipal(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *principalAPI) getStudent(ctx echo.Context) error {
	var data GetUserByIDRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	student, err := api.deps.PrincipalSvc.GetStudentByHumanID(ctx.Request().Context(), getContextPrincipal(ctx), data.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *principalAPI) updateStudent(ctx echo.Context) error {
	var data principal.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}
	photos, err := readUploads(ctx, "image")
	if err != nil {
		return err
	}
	student, err := api.deps.PrincipalSvc.UpdateStudent(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id"), data, photos)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *principalAPI) deleteStudent(ctx echo.Context) error {
	if err := api.deps.PrincipalSvc.DeleteStudent(ctx.Request().Context(), getContextPrincipal(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, success("Student deleted successfully"))
}
